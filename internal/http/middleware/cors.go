package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yungbote/frugalprotein-backend/internal/platform/envutil"
)

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

// CORS allows the frontend origins listed in CORS_ALLOW_ORIGINS, falling
// back to local dev servers.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:  envutil.List("CORS_ALLOW_ORIGINS", defaultOrigins),
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "X-Requested-With", headerRequestID},
		ExposeHeaders: []string{headerTraceID, headerRequestID},
	})
}
