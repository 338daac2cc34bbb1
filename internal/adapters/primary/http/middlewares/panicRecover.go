package middlewares

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/Aagam-Bothara/astranum-sub001/internal/adapters/primary/http/controllers"
)

func RecoveryLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("PANIC CAUGHT",
					"panic", r,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"full_path", c.FullPath(),
					"client_ip", c.ClientIP(),
					"request_id", c.GetString(requestIDKey),
				)

				// Стек отдельной записью для читаемости
				log.Error("Stack trace:",
					"stack", string(debug.Stack()),
				)

				controllers.Abort(c, http.StatusInternalServerError, controllers.CodeInternal, "internal server error")
			}
		}()
		c.Next()
	}
}
