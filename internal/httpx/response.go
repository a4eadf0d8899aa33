package httpx

import "github.com/gin-gonic/gin"

// Envelope is the uniform JSON response body. Error responses carry the
// legacy "detals" alias with the same value as "details"; some deployed
// clients read the misspelled key, so it is a contract field.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data"`
	Error   *ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Details     any    `json:"details"`
	DetalsAlias any    `json:"detals"`
}

func OK(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

func Error(c *gin.Context, status int, code, message string) {
	ErrorDetails(c, status, code, message, nil)
}

func ErrorDetails(c *gin.Context, status int, code, message string, details any) {
	c.JSON(status, Envelope{
		Success: false,
		Error: &ErrorBody{
			Code:        code,
			Message:     message,
			Details:     details,
			DetalsAlias: details,
		},
	})
}

func AbortError(c *gin.Context, status int, code, message string) {
	c.Abort()
	Error(c, status, code, message)
}
