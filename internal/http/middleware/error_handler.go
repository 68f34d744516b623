package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/proposal-engine/internal/interface/http/response"
	"github.com/ignatzorin/proposal-engine/internal/logger"
	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
)

// ErrorHandler превращает ошибки из c.Errors в конверт ответа и ловит panic.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.WithFields(logrus.Fields{
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				}).Errorf("Panic при обработке запроса: %v", r)
				if !c.Writer.Written() {
					response.Error(c, apperror.Wrap(fmt.Errorf("panic: %v", r), apperror.ErrCodeInternal, "внутренняя ошибка сервера"))
				}
				c.Abort()
			}
		}()

		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		response.Error(c, c.Errors.Last().Err)
	}
}

// NoRoute отдаёт 404 в общем формате.
func NoRoute(c *gin.Context) {
	response.NotFound(c, fmt.Sprintf("маршрут %s %s не найден", c.Request.Method, c.Request.URL.Path))
}

// NoMethod отдаёт 405 в общем формате.
func NoMethod(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusMethodNotAllowed, response.Response{
		Success: false,
		Error:   &response.ErrorInfo{Code: "METHOD_NOT_ALLOWED", Message: "метод не поддерживается"},
	})
}
