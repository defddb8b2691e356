package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redisctl/im-redis/internal/errdef"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bindRequest struct {
	Pod  string `json:"pod" form:"pod" binding:"required"`
	Port int    `json:"port" form:"port"`
}

func TestDataBinder(t *testing.T) {
	newContext := func(t *testing.T, contentType, body string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		request, err := http.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		require.NoError(t, err)
		request.Header.Set("Content-Type", contentType)
		c.Request = request
		return c
	}

	t.Run("JSON", func(t *testing.T) {
		c := newContext(t, "application/json", `{"pod": "p1", "port": 6400}`)

		var req bindRequest
		err := DataBinder(c, &req)

		require.NoError(t, err)
		assert.Equal(t, bindRequest{Pod: "p1", Port: 6400}, req)
	})

	t.Run("Form", func(t *testing.T) {
		c := newContext(t, "application/x-www-form-urlencoded", "pod=p1&port=6400")

		var req bindRequest
		err := DataBinder(c, &req)

		require.NoError(t, err)
		assert.Equal(t, bindRequest{Pod: "p1", Port: 6400}, req)
	})

	t.Run("MissingRequiredField", func(t *testing.T) {
		c := newContext(t, "application/x-www-form-urlencoded", "port=6400")

		var req bindRequest
		err := DataBinder(c, &req)

		assert.True(t, errdef.IsBadRequest(err))
	})

	t.Run("UnsupportedMediaType", func(t *testing.T) {
		c := newContext(t, "text/plain", "pod=p1")

		var req bindRequest
		err := DataBinder(c, &req)

		assert.True(t, errdef.IsUnsupportedMediaType(err))
	})
}
