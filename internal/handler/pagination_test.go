package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redisctl/im-redis/internal/errdef"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPage(t *testing.T) {
	tests := map[string]struct {
		query   string
		want    int
		wantErr bool
	}{
		"Absent":   {query: "", want: 0},
		"Given":    {query: "?page=3", want: 3},
		"Negative": {query: "?page=-1", wantErr: true},
		"NaN":      {query: "?page=two", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			request, err := http.NewRequest(http.MethodGet, "/nodes"+tt.query, nil)
			require.NoError(t, err)
			c.Request = request

			page, err := GetPage(c)

			if tt.wantErr {
				assert.True(t, errdef.IsBadRequest(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, page)
		})
	}
}
