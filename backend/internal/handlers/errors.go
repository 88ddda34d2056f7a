package handlers

import (
	"log"
	"net/http"

	"taskboard/backend/internal/apperror"
	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

// handleError renders err as {"message": ...}. Internal failures are logged
// here and reach the client only as a generic message.
func handleError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	if kind == apperror.KindInternal {
		log.Printf("❌ %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(kind.HTTPStatus(), gin.H{"message": apperror.PublicMessage(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": msg})
}

// caller returns the authenticated identity, answering 401 when the route
// was wired without AuthRequired.
func caller(c *gin.Context) (auth.Identity, bool) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
	}
	return identity, ok
}

func pathID(c *gin.Context, notFound string) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": notFound})
		return uuid.Nil, false
	}
	return id, true
}
