package middleware

import (
	"net/http"

	"github.com/cantinaverde/cantina/internal/pkg/validation"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

// BindJSON decodes the request body into obj and validates it. An empty body
// leaves obj at its zero value. On failure the error response is written and
// false is returned.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(obj); err != nil {
			RespondBadRequest(c, err.Error())
			return false
		}
	}
	if err := validation.Struct(obj); err != nil {
		HandleAPIError(c, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}
