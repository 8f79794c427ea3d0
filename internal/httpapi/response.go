package httpapi

import "github.com/gin-gonic/gin"

// envelope — единый формат ответа API: {success, message, data}.
type envelope struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    any      `json:"data,omitempty"`
	Code    string   `json:"code,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func respondSuccess(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func respondError(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Message: message, Code: code})
}

func respondValidationError(c *gin.Context, status int, message, code string, errs []string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Message: message, Code: code, Errors: errs})
}
