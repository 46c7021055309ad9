package handlers

import (
	"errors"
	"net/http"

	"github.com/docsift/docsift/db/metadb"
	"github.com/docsift/docsift/logger"
	"github.com/docsift/docsift/services/index"
	"github.com/gin-gonic/gin"
)

type IndexesResponse struct {
	Indexes []metadb.RootSummary `json:"indexes"`
}

func SetupIndexes(router *gin.Engine, logger logger.Logger, service *index.Service) {
	router.GET("/api/indexes", handleListIndexes(service, logger))
	router.DELETE("/api/indexes/:id", handleDeleteIndex(service, logger))
}

func handleListIndexes(service *index.Service, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		summaries, err := service.ListIndexes()
		if err != nil {
			logger.Error("could not list indexes", "err", err.Error())
			writeError(c, http.StatusInternalServerError, err.Error())
			return
		}

		c.JSON(http.StatusOK, IndexesResponse{Indexes: summaries})
	}
}

func handleDeleteIndex(service *index.Service, logger logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		if err := service.DeleteIndex(id); err != nil {
			if errors.Is(err, index.ErrIndexNotFound) {
				writeError(c, http.StatusNotFound, err.Error())
				return
			}
			logger.Error("could not delete index", "id", id, "err", err.Error())
			writeError(c, http.StatusInternalServerError, err.Error())
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Index deleted"})
	}
}
