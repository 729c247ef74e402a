package middleware

import (
	"food-marketplace-api/apperr"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AbortWithError writes err as a JSON error response and stops the chain.
// Unclassified errors are reported as internal and their cause only logged.
func AbortWithError(c *gin.Context, err error) {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Internal("internal server error", err)
	}
	if e.Kind == apperr.KindInternal {
		logrus.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString(RequestIDKey),
			"path":       c.Request.URL.Path,
		}).Error("Request failed")
	}

	body := gin.H{"success": false, "error": e.Message}
	if len(e.Details) > 0 {
		body["details"] = e.Details
	}
	c.AbortWithStatusJSON(e.Kind.HTTPStatus(), body)
}
