package handlers

import (
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, statusCode int, message string) {
	c.Abort()
	c.JSON(statusCode, errorResponse{Error: message})
}
