package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/cache"
	"taskboard/backend/internal/config"
	"taskboard/backend/internal/middleware"
	"taskboard/backend/internal/models"
	"taskboard/backend/internal/policy"
	"taskboard/backend/internal/repositories"
	"taskboard/backend/internal/services"
	"taskboard/backend/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// newTestApplication wires the real router over sqlite; withRedis adds the
// shared limiters backed by miniredis.
func newTestApplication(t *testing.T, withRedis bool) (*Application, *models.User, *models.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	cfg.Server.UploadDir = t.TempDir()
	cfg.RateLimit.SigninPerMin = 2
	cfg.RateLimit.MutationsPerMin = 1

	db := testutil.NewTestDB(t)
	users := repositories.NewGormUserRepository(db)
	tasks := repositories.NewGormTaskRepository(db)
	p := policy.New(cfg.Policy)
	dashboards := cache.NewMultiLevelCache(nil, time.Minute)
	t.Cleanup(func() { dashboards.Close() })

	app := &Application{
		Config:          cfg,
		Cache:           dashboards,
		Tokens:          auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Users:           users,
		Tasks:           tasks,
		RegisterService: services.NewRegisterService(users, ""),
		UserService:     services.NewUserService(users, tasks, p),
		ReportService:   services.NewReportService(tasks, users, p),
		TaskService: services.NewCachedTaskService(
			services.NewTaskService(tasks, users, p),
			services.NewDashboardService(tasks, p),
			dashboards, nil, time.Minute,
		),
	}
	app.AuthService = services.NewAuthService(users, app.Tokens)

	if withRedis {
		mr := miniredis.RunT(t)
		app.Redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { app.Redis.Close() })
		app.Limiter = middleware.NewDistributedRateLimiter(app.Redis)
	}

	app.setupRoutes()

	alice := testutil.CreateUser(t, db, "Alice", models.RoleUser)
	bob := testutil.CreateUser(t, db, "Bob", models.RoleUser)
	return app, alice, bob
}

func (app *Application) send(t *testing.T, method, path string, as *models.User, body string) int {
	t.Helper()

	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:4000"
	if as != nil {
		token, err := app.Tokens.Issue(as.ID, as.Role)
		if err != nil {
			t.Fatalf("Failed to issue token: %v", err)
		}
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	return w.Code
}

func TestSigninIsRateLimitedWithRedis(t *testing.T) {
	app, _, _ := newTestApplication(t, true)
	creds := `{"email":"nobody@example.com","password":"wrong"}`

	for i := 0; i < 2; i++ {
		if code := app.send(t, "POST", "/api/auth/signin", nil, creds); code != http.StatusBadRequest {
			t.Fatalf("Expected attempt %d to reach the handler, got %d", i+1, code)
		}
	}
	if code := app.send(t, "POST", "/api/auth/signin", nil, creds); code != http.StatusTooManyRequests {
		t.Errorf("Expected third signin to be limited, got %d", code)
	}

	if code := app.send(t, "POST", "/api/auth/signup", nil, `{}`); code != http.StatusBadRequest {
		t.Errorf("Expected signup not to share the signin budget, got %d", code)
	}
}

func TestSigninUnlimitedWithoutRedis(t *testing.T) {
	app, _, _ := newTestApplication(t, false)
	creds := `{"email":"nobody@example.com","password":"wrong"}`

	for i := 0; i < 4; i++ {
		if code := app.send(t, "POST", "/api/auth/signin", nil, creds); code != http.StatusBadRequest {
			t.Errorf("Expected attempt %d to reach the handler, got %d", i+1, code)
		}
	}
}

func TestTaskMutationsAreLimitedPerUser(t *testing.T) {
	app, alice, bob := newTestApplication(t, true)

	if code := app.send(t, "POST", "/api/tasks/create", alice, `{}`); code != http.StatusBadRequest {
		t.Fatalf("Expected first write to reach the handler, got %d", code)
	}
	if code := app.send(t, "POST", "/api/tasks/create", alice, `{}`); code != http.StatusTooManyRequests {
		t.Errorf("Expected second write by the same user to be limited, got %d", code)
	}
	if code := app.send(t, "GET", "/api/tasks", alice, ""); code != http.StatusOK {
		t.Errorf("Expected reads to stay unlimited, got %d", code)
	}
	if code := app.send(t, "POST", "/api/tasks/create", bob, `{}`); code != http.StatusBadRequest {
		t.Errorf("Expected another user from the same address to have a separate budget, got %d", code)
	}
}
