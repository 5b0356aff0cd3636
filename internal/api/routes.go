package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterConfig configures the HTTP surface
type RouterConfig struct {
	CORSOrigins []string
	Version     string
}

// NewRouter builds the gin engine serving the ledger datasets
func NewRouter(svc Analyzer, log zerolog.Logger, cfg RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(RequestID())
	router.Use(Logger(log))
	router.Use(Recovery(log))

	corsConfig := cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", RequestIDHeader, WarningsHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	h := NewHandler(svc, cfg.Version)
	router.GET("/health", h.Health)
	SetupTransactionRoutes(router.Group("/"), h)

	return router
}

// SetupTransactionRoutes sets up the ledger dataset routes
func SetupTransactionRoutes(rg *gin.RouterGroup, h *Handler) {
	rg.GET("/transactionData", h.GetTransactions)
	rg.GET("/transactionData/rfm", h.GetRFM)
	rg.GET("/transactionData/day/:date", h.GetDaySummary)
}
