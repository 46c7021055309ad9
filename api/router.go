package api

import (
	"net/http"

	"github.com/docsift/docsift/api/handlers"
	"github.com/docsift/docsift/logger"
	"github.com/docsift/docsift/services/index"
	"github.com/docsift/docsift/services/search"
	"github.com/docsift/docsift/validation"
	"github.com/gin-gonic/gin"
)

func setupRoutes(router *gin.Engine, logger logger.Logger, indexService *index.Service, searchService *search.Service, validator *validation.Validator) {
	router.GET("/health", health())

	handlers.SetupCrawl(router, logger, indexService, validator)
	handlers.SetupIndex(router, logger, indexService, validator)
	handlers.SetupIndexes(router, logger, indexService)
	handlers.SetupSearch(router, logger, searchService, validator)
}

func health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Backend server running"})
	}
}

func newRouter() *gin.Engine {
	router := gin.Default()
	router.UseRawPath = true
	router.Use(_CORSMiddleware())
	router.Use(gin.Recovery())

	return router
}
