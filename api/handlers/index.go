package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/docsift/docsift/logger"
	"github.com/docsift/docsift/services/index"
	"github.com/docsift/docsift/validation"
	"github.com/gin-gonic/gin"
)

type IndexRequest struct {
	FolderPath string `json:"folderPath" validate:"required,valid_path"`
	IsReindex  bool   `json:"isReindex"`
}

func SetupIndex(router *gin.Engine, logger logger.Logger, service *index.Service, validator *validation.Validator) {
	router.POST("/api/index", handleIndex(service, logger, validator))
}

// handleIndex starts an index run and streams its progress events as
// newline-delimited data: framed JSON records until the run's terminal
// event, after which the stream closes.
func handleIndex(service *index.Service, logger logger.Logger, validator *validation.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		request := IndexRequest{}
		if err := c.ShouldBindJSON(&request); err != nil {
			logger.Warn("could not extract index request body", "err", err.Error())
			writeError(c, http.StatusBadRequest, "Invalid folder path")
			return
		}

		if err := validator.Validate(request); err != nil {
			logger.Warn("could not validate index request", "err", err.Error())
			writeError(c, http.StatusBadRequest, "Invalid folder path")
			return
		}

		sink, err := service.Start(c.Request.Context(), request.FolderPath, request.IsReindex)
		if err != nil {
			switch {
			case errors.Is(err, index.ErrInvalidRoot):
				writeError(c, http.StatusBadRequest, err.Error())
			case errors.Is(err, index.ErrRunInProgress):
				writeError(c, http.StatusConflict, err.Error())
			default:
				writeError(c, http.StatusInternalServerError, err.Error())
			}
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.WriteHeader(http.StatusOK)
		c.Writer.Flush()

		for event := range sink.Events() {
			payload, err := json.Marshal(event)
			if err != nil {
				logger.Error("could not marshal progress event", "err", err.Error())
				continue
			}
			if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
				// Consumer is gone; drain until the coordinator notices the
				// cancelled request context and closes the sink.
				logger.Warn("could not write progress event to stream", "err", err.Error())
			}
			c.Writer.Flush()
		}
	}
}
