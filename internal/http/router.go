package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/frugalprotein-backend/internal/http/handlers"
	httpMW "github.com/yungbote/frugalprotein-backend/internal/http/middleware"
	"github.com/yungbote/frugalprotein-backend/internal/observability"
	"github.com/yungbote/frugalprotein-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string

	HealthHandler     *httpH.HealthHandler
	ProductHandler    *httpH.ProductHandler
	CalculatorHandler *httpH.CalculatorHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		// Catalog
		if cfg.ProductHandler != nil {
			api.GET("/products/search", cfg.ProductHandler.Search)
			api.GET("/products/barcode/:barcode", cfg.ProductHandler.GetByBarcode)
			api.POST("/products/barcode/scan", cfg.ProductHandler.Scan)
			api.GET("/products/:id", cfg.ProductHandler.Get)
		}

		// Calculator
		if cfg.CalculatorHandler != nil {
			api.POST("/calculator", cfg.CalculatorHandler.Calculate)
		}
	}

	return r
}
