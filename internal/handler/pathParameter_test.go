package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redisctl/im-redis/internal/errdef"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPathParameter(t *testing.T) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.AddParam("id", "123")

	id, err := GetPathParameter(ctx, "id")
	require.NoError(t, err)
	assert.Equal(t, uint(123), id)
}

func TestGetPathParameter_NotFound(t *testing.T) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)

	id, err := GetPathParameter(ctx, "id")
	assert.True(t, errdef.IsBadRequest(err))
	assert.Equal(t, uint(0), id)
}
