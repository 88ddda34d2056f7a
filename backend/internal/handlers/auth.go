package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

const maxImageSize = 5 << 20

var allowedImageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

type AuthOptions struct {
	CookieSecure bool
	// TokenTTL sets the cookie lifetime; zero makes it a session cookie.
	TokenTTL  time.Duration
	UploadDir string
	PublicURL string
}

type AuthHandler struct {
	register services.RegisterService
	auth     services.AuthService
	opts     AuthOptions
}

func NewAuthHandler(register services.RegisterService, authService services.AuthService, opts AuthOptions) *AuthHandler {
	return &AuthHandler{register: register, auth: authService, opts: opts}
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req services.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "All fields are required")
		return
	}

	user, err := h.register.Signup(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Signup successful", "user": user})
}

func (h *AuthHandler) Signin(c *gin.Context) {
	var req services.SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "All fields are required")
		return
	}

	user, token, err := h.auth.Signin(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}

	h.setTokenCookie(c, token, int(h.opts.TokenTTL.Seconds()))
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) Signout(c *gin.Context) {
	h.setTokenCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "User has been logged out successfully"})
}

func (h *AuthHandler) Profile(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}

	user, err := h.auth.Profile(c.Request.Context(), identity)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	identity, ok := caller(c)
	if !ok {
		return
	}

	var update services.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	user, err := h.auth.UpdateProfile(c.Request.Context(), identity, update)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UploadImage stores a profile picture from the multipart field "image".
func (h *AuthHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}
	if file.Size > maxImageSize {
		badRequest(c, "Image must be 5MB or smaller")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	contentType, allowed := allowedImageTypes[ext]
	if !allowed {
		badRequest(c, "Only .jpeg, .jpg and .png formats are allowed")
		return
	}
	if sniffed, err := sniffContentType(file); err != nil || sniffed != contentType {
		badRequest(c, "Only .jpeg, .jpg and .png formats are allowed")
		return
	}

	if err := os.MkdirAll(h.opts.UploadDir, 0o755); err != nil {
		log.Printf("❌ Failed to create upload dir %s: %v", h.opts.UploadDir, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}

	name := fmt.Sprintf("%d-%s%s", time.Now().Unix(), uuid.Must(uuid.NewV4()).String(), ext)
	if err := c.SaveUploadedFile(file, filepath.Join(h.opts.UploadDir, name)); err != nil {
		log.Printf("❌ Failed to save upload %s: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"imageUrl": h.baseURL(c) + "/uploads/" + name})
}

func sniffContentType(file *multipart.FileHeader) (string, error) {
	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}

func (h *AuthHandler) setTokenCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, value, maxAge, "/", "", h.opts.CookieSecure, true)
}

func (h *AuthHandler) baseURL(c *gin.Context) string {
	if h.opts.PublicURL != "" {
		return strings.TrimRight(h.opts.PublicURL, "/")
	}
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if forwarded := c.GetHeader("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + c.Request.Host
}
