package server

import (
	"erdv/internal/logger"
	"erdv/internal/workspace"
	"erdv/pkg/config"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// New wires the HTTP API over a workspace. The returned server is not
// started.
func New(cfg config.ServerConfig, ws *workspace.Workspace, log *logger.Logger) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      NewRouter(cfg, ws, log),
		IdleTimeout:  time.Minute,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

func NewRouter(cfg config.ServerConfig, ws *workspace.Workspace, log *logger.Logger) *gin.Engine {
	if log == nil {
		log = logger.Global()
	}

	router := gin.New()
	router.Use(gin.Recovery(), accessLog(log))
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	diagrams := NewDiagramHandler(ws)
	spreadsheets := NewSpreadsheetHandler(ws)

	router.GET("/healthz", Health)

	api := router.Group("/api/v1")
	{
		api.POST("/diagrams/normalize", diagrams.Normalize)
		api.POST("/diagrams/render/:format", diagrams.Render)
		api.GET("/diagrams/*path", diagrams.Load)
		api.PUT("/diagrams/*path", diagrams.Save)

		api.GET("/spreadsheets/*path", spreadsheets.Import)
		api.PUT("/spreadsheets/*path", spreadsheets.Export)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func accessLog(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLog := log.With().Str("method", c.Request.Method).Str("path", c.Request.URL.Path).Logger()
		c.Request = c.Request.WithContext(reqLog.WithContext(c.Request.Context()))

		c.Next()

		log.Event().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
