// filename: internal/api/routes/errors.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/rulesmith/rulesmith/internal/common/errors"
)

// writeError отдает ошибку приложения в едином JSON формате // v1.0
func writeError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		c.JSON(appErr.StatusCode, gin.H{
			"error":   string(appErr.Code),
			"message": appErr.Message,
			"details": appErr.Details,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   string(apperrors.ErrorCodeInternal),
		"message": err.Error(),
	})
}
