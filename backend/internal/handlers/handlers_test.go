package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/config"
	"taskboard/backend/internal/middleware"
	"taskboard/backend/internal/models"
	"taskboard/backend/internal/policy"
	"taskboard/backend/internal/repositories"
	"taskboard/backend/internal/services"
	"taskboard/backend/internal/testutil"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func setupTestGin() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

type testServer struct {
	router    *gin.Engine
	db        *gorm.DB
	tokens    *auth.TokenManager
	tasks     *repositories.GormTaskRepository
	uploadDir string

	admin *models.User
	alice *models.User
	bob   *models.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.NewTestDB(t)
	users := repositories.NewGormUserRepository(db)
	tasks := repositories.NewGormTaskRepository(db)
	p := policy.New(config.PolicyConfig{AdminOnlyDashboard: true})
	tokens := auth.NewTokenManager("handler-secret", time.Hour)

	s := &testServer{
		router:    setupTestGin(),
		db:        db,
		tokens:    tokens,
		tasks:     tasks,
		uploadDir: t.TempDir(),
		admin:     testutil.CreateUser(t, db, "Admin", models.RoleAdmin),
		alice:     testutil.CreateUser(t, db, "Alice", models.RoleUser),
		bob:       testutil.CreateUser(t, db, "Bob", models.RoleUser),
	}

	authHandler := NewAuthHandler(
		services.NewRegisterService(users, "join-code"),
		services.NewAuthService(users, tokens),
		AuthOptions{UploadDir: s.uploadDir, PublicURL: "http://files.test"},
	)
	taskHandler := NewTaskHandler(services.NewTaskService(tasks, users, p), services.NewDashboardService(tasks, p))
	userHandler := NewUserHandler(services.NewUserService(users, tasks, p))
	reportHandler := NewReportHandler(services.NewReportService(tasks, users, p))

	requireAuth := middleware.AuthRequired(tokens)
	api := s.router.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.POST("/signup", authHandler.Signup)
	authRoutes.POST("/signin", authHandler.Signin)
	authRoutes.POST("/signout", authHandler.Signout)
	authRoutes.POST("/upload-image", authHandler.UploadImage)
	authRoutes.GET("/user-profile", requireAuth, authHandler.Profile)
	authRoutes.PUT("/update-profile", requireAuth, authHandler.UpdateProfile)

	taskRoutes := api.Group("/tasks", requireAuth)
	taskRoutes.POST("/create", taskHandler.CreateTask)
	taskRoutes.GET("", taskHandler.ListTasks)
	taskRoutes.GET("/dashboard", taskHandler.Dashboard)
	taskRoutes.GET("/user-dashboard", taskHandler.UserDashboard)
	taskRoutes.GET("/:id", taskHandler.GetTask)
	taskRoutes.PUT("/:id", taskHandler.UpdateTask)
	taskRoutes.DELETE("/:id", taskHandler.DeleteTask)
	taskRoutes.PUT("/:id/status", taskHandler.UpdateStatus)
	taskRoutes.PUT("/:id/checklist", taskHandler.UpdateChecklist)

	api.GET("/users", requireAuth, middleware.AdminOnly(), userHandler.ListMembers)
	api.GET("/users/:id", requireAuth, userHandler.GetUser)
	api.GET("/reports/export/tasks", requireAuth, middleware.AdminOnly(), reportHandler.ExportTasks)
	api.GET("/reports/export/users", requireAuth, middleware.AdminOnly(), reportHandler.ExportUsers)

	return s
}

func (s *testServer) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return token
}

// do sends body as JSON; as may be nil for anonymous requests.
func (s *testServer) do(t *testing.T, method, path string, as *models.User, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: s.token(t, as)})
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dest); err != nil {
		t.Fatalf("Failed to parse response %q: %v", w.Body.String(), err)
	}
}

func message(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	decode(t, w, &body)
	return body.Message
}
