package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apiError "github.com/techagentng/converse/errors"
)

// JSON writes the standard response envelope. Typed *errors.Error values carry
// their own status; untyped errors surface their detail only outside release
// mode.
func JSON(c *gin.Context, message string, status int, data interface{}, err error) {
	errMessage := ""
	if err != nil {
		switch e := err.(type) {
		case *apiError.Error:
			errMessage = e.Message
			if status == 0 || status < http.StatusBadRequest {
				status = e.Status
			}
		default:
			errMessage = http.StatusText(status)
			if gin.Mode() != gin.ReleaseMode {
				errMessage = err.Error()
			}
		}
	}

	responsedata := gin.H{
		"message": message,
		"data":    data,
		"errors":  errMessage,
		"status":  http.StatusText(status),
	}

	c.JSON(status, responsedata)
}
