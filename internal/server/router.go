package server

import (
	"github.com/gin-gonic/gin"

	"github.com/KaramelBytes/concentra-cli/internal/logger"
)

func NewRouter(h *Handler, log *logger.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(CORS(h.opt.CORSOrigins))

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.POST("/upload", h.Upload)

		sessions := api.Group("/sessions/:id")
		sessions.GET("", h.GetSession)
		sessions.DELETE("", h.DeleteSession)
		sessions.PUT("/upload", h.ReplaceUpload)
		sessions.POST("/reclassify-columns", h.ReclassifyColumns)
		sessions.POST("/time-concentration-analysis", h.TimeConcentration)
		sessions.POST("/concentration-analysis", h.GroupConcentration)
	}
	return r
}
