package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/adminkit/internal/middleware"
	"github.com/noah-isme/adminkit/internal/models"
	appErrors "github.com/noah-isme/adminkit/pkg/errors"
)

func sessionFromContext(c *gin.Context) *models.Session {
	return middleware.SessionFromContext(c)
}

func tokenFromContext(c *gin.Context, cookieName string) string {
	if token := c.GetString(middleware.ContextTokenKey); token != "" {
		return token
	}
	return middleware.SessionToken(c, cookieName)
}

func userID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.InvalidArgument("invalid user id")
	}
	return id, nil
}

// bindPayload accepts JSON bodies as well as url-encoded or multipart forms.
func bindPayload(c *gin.Context, dst interface{}, message string) error {
	if err := c.ShouldBind(dst); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	return nil
}

// pageData merges the values shared by every rendered page into data.
func pageData(c *gin.Context, title string, data gin.H) gin.H {
	if data == nil {
		data = gin.H{}
	}
	data["title"] = title
	if session := sessionFromContext(c); session != nil {
		data["session"] = session
	}
	return data
}
