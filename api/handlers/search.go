package handlers

import (
	"net/http"

	"github.com/docsift/docsift/logger"
	"github.com/docsift/docsift/services/search"
	"github.com/docsift/docsift/validation"
	"github.com/gin-gonic/gin"
)

type SearchRequest struct {
	Query string `json:"query" validate:"required,valid_query,min=1,max=1000"`
	Limit int    `json:"limit" validate:"min=0,max=100"`
}

type SearchResponse struct {
	Success bool            `json:"success"`
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
}

func SetupSearch(router *gin.Engine, logger logger.Logger, service *search.Service, validator *validation.Validator) {
	router.POST("/api/search", handleSearch(service, logger, validator))
}

func handleSearch(service *search.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := SearchRequest{}
		if err := c.ShouldBindJSON(&request); err != nil {
			logger.Warn("could not extract search request body", "err", err.Error())
			writeError(c, http.StatusBadRequest, "No query provided")
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate search request", "err", err.Error())
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}

		results, err := service.Search(request.Query, request.Limit)
		if err != nil {
			logger.Error("search failed", "err", err.Error())
			writeError(c, http.StatusInternalServerError, err.Error())
			return
		}
		if results == nil {
			results = []search.Result{}
		}

		c.JSON(http.StatusOK, SearchResponse{
			Success: true,
			Query:   request.Query,
			Results: results,
		})
	}
}
