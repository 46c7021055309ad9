package handlers

import (
	"net/http"

	"github.com/docsift/docsift/logger"
	"github.com/docsift/docsift/services/index"
	"github.com/docsift/docsift/validation"
	"github.com/gin-gonic/gin"
)

// crawlPreviewSize bounds how many discovered files the crawl endpoint
// echoes back.
const crawlPreviewSize = 10

type CrawlRequest struct {
	FolderPath string `json:"folderPath" validate:"required,valid_path"`
}

type CrawlResponse struct {
	Success   bool                   `json:"success"`
	FileCount int                    `json:"fileCount"`
	Files     []index.FileDescriptor `json:"files"`
}

func SetupCrawl(router *gin.Engine, logger logger.Logger, service *index.Service, validator *validation.Validator) {
	router.POST("/api/crawl", handleCrawl(service, logger, validator))
}

func handleCrawl(service *index.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := CrawlRequest{}
		if err := c.ShouldBindJSON(&request); err != nil {
			logger.Warn("could not extract crawl request body", "err", err.Error())
			writeError(c, http.StatusBadRequest, "Invalid folder path")
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate crawl request", "err", err.Error())
			writeError(c, http.StatusBadRequest, "Invalid folder path")
			return
		}

		files, err := service.Crawl(request.FolderPath)
		if err != nil {
			logger.Warn("crawl failed", "path", request.FolderPath, "err", err.Error())
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}

		preview := files
		if len(preview) > crawlPreviewSize {
			preview = preview[:crawlPreviewSize]
		}
		if preview == nil {
			preview = []index.FileDescriptor{}
		}

		c.JSON(http.StatusOK, CrawlResponse{
			Success:   true,
			FileCount: len(files),
			Files:     preview,
		})
	}
}
