package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redisctl/im-redis/internal/errdef"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := map[string]struct {
		err  error
		want int
	}{
		"BadRequest":           {err: errdef.NewBadRequest("invalid port"), want: http.StatusBadRequest},
		"Forbidden":            {err: errdef.NewForbidden("access denied"), want: http.StatusForbidden},
		"Duplicated":           {err: errdef.NewDuplicated("exists"), want: http.StatusConflict},
		"NotFound":             {err: errdef.NewNotFound("no such unit"), want: http.StatusNotFound},
		"Unauthorized":         {err: errdef.NewUnauthorized("token not valid"), want: http.StatusUnauthorized},
		"Conflict":             {err: errdef.NewConflict("conflict"), want: http.StatusConflict},
		"UnsupportedMediaType": {err: errdef.NewUnsupportedMediaType("json only"), want: http.StatusUnsupportedMediaType},
		"Internal":             {err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			r := gin.New()
			r.Use(CorrelationID(), ErrorHandler())
			r.GET("/", func(c *gin.Context) {
				_ = c.Error(tt.err)
			})

			w := httptest.NewRecorder()
			req, err := http.NewRequest(http.MethodGet, "/", nil)
			require.NoError(t, err)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusInternalServerError {
				assert.Contains(t, w.Body.String(), "something went wrong")
				assert.NotContains(t, w.Body.String(), "boom")
			} else {
				assert.Equal(t, tt.err.Error(), w.Body.String())
			}
		})
	}
}
