package log

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redisctl/im-redis/internal/errdef"
	"github.com/redisctl/im-redis/internal/middleware"
	"github.com/redisctl/im-redis/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogs(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(middleware.CorrelationID())

	var b bytes.Buffer
	logger := slog.New(New(slog.NewJSONHandler(&b, nil)))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.ErrorHandler())

	var userID uint = 1
	r.Use(fakeAuthentication(userID))

	t.Run("ContainCorrelationIDAndUserID", func(t *testing.T) {
		b.Reset()
		var correlationID string
		r.GET("/test1/:id", func(c *gin.Context) {
			correlationID, _ = middleware.GetCorrelationID(c.Request.Context())
			// middleware.RequestLogger() and our call to InfoContext should add log lines with
			// attribute correlationId=<correlationID> and user=<userID>
			logger.InfoContext(c.Request.Context(), "info")
			c.String(http.StatusOK, "success")
		})

		w := httptest.NewRecorder()
		req, err := http.NewRequest("GET", "/test1/100", nil)
		require.NoError(t, err)
		req.Header.Set("X-User", "yes")
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		sc := bufio.NewScanner(&b)
		for sc.Scan() {
			line := sc.Text()
			got := make(map[string]any)

			err = json.Unmarshal([]byte(line), &got)

			assert.NoError(t, err)
			t.Log("log line:", line)
			assertLogAttributeEquals(t, got, middleware.RequestLoggerKeyCorrelationID, correlationID)
			assertLogAttributeEquals(t, got, middleware.RequestLoggerKeyUser, userID)
		}
	})

	t.Run("ContainsQueryAndURLParameters", func(t *testing.T) {
		b.Reset()
		r.GET("/test2/:urlParam", func(c *gin.Context) {
			c.String(http.StatusOK, "success")
		})

		w := httptest.NewRecorder()
		req, err := http.NewRequest("GET", "/test2/100", nil)
		require.NoError(t, err)
		q := req.URL.Query()
		q.Add("query1", "true")
		req.URL.RawQuery = q.Encode()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		sc := bufio.NewScanner(&b)
		for sc.Scan() {
			line := sc.Text()
			got := make(map[string]any)

			err = json.Unmarshal([]byte(line), &got)

			require.NoError(t, err)
			t.Log("log line:", line)

			v := assertLogAttributeKey(t, got, "request")
			gotRequest, ok := v.(map[string]any)
			assert.True(t, ok, "want log line to have key `request` of type map[string]any")

			assertLogAttributeEquals(t, gotRequest, "path", "/test2/100")
			assertLogAttributeEquals(t, gotRequest, "route", "/test2/:urlParam")
			assertLogAttributeEquals(t, gotRequest, "query", "query1=true")
			assertLogAttributeEquals(t, gotRequest, "params", map[string]any{"urlParam": "100"})
		}
	})

	t.Run("UseLogLevelWarningOnClientError", func(t *testing.T) {
		b.Reset()
		r.GET("/test4", func(c *gin.Context) {
			_ = c.Error(errdef.NewNotFound("no unit with container id %q", "c123"))
		})

		w := httptest.NewRecorder()
		req, err := http.NewRequest("GET", "/test4", nil)
		require.NoError(t, err)
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusNotFound, w.Code)

		sc := bufio.NewScanner(&b)
		for sc.Scan() {
			line := sc.Text()
			got := make(map[string]any)

			err = json.Unmarshal([]byte(line), &got)

			require.NoError(t, err)
			t.Log("log line:", line)
			assertLogAttributeEquals(t, got, "level", "WARN")
			assertLogAttributeContains(t, got, "error", "no unit with container id")
		}
	})

	t.Run("UseLogLevelErrorOnServerError", func(t *testing.T) {
		b.Reset()
		r.GET("/test5", func(c *gin.Context) {
			_ = c.AbortWithError(http.StatusInternalServerError, errors.New("unknown error"))
		})

		w := httptest.NewRecorder()
		req, err := http.NewRequest("GET", "/test5", nil)
		require.NoError(t, err)
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusInternalServerError, w.Code)

		sc := bufio.NewScanner(&b)
		for sc.Scan() {
			line := sc.Text()
			got := make(map[string]any)

			err = json.Unmarshal([]byte(line), &got)

			require.NoError(t, err)
			t.Log("log line:", line)
			assertLogAttributeEquals(t, got, "level", "ERROR")
			assertLogAttributeContains(t, got, "error", "unknown error")
		}
	})
}

func TestNewLogger(t *testing.T) {
	var b bytes.Buffer
	logger, err := NewLogger(&b, "WARN", false)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept")

	assert.NotContains(t, b.String(), "dropped")
	assert.Contains(t, b.String(), "kept")

	_, err = NewLogger(&b, "LOUD", false)
	assert.ErrorContains(t, err, `invalid log level "LOUD"`)
}

// fakeAuthentication puts a user on the request context if the X-User header is set.
func fakeAuthentication(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("X-User") != "" {
			user := &model.User{ID: userID}
			c.Set("user", user)
			c.Request = c.Request.WithContext(model.NewContextWithUser(c.Request.Context(), user))
		}
		c.Next()
	}
}

func assertLogAttributeEquals(t *testing.T, got map[string]any, wantKey string, wantValue any) {
	v := assertLogAttributeKey(t, got, wantKey)
	assert.EqualValuesf(t, wantValue, v, "want log line to have key %q", wantKey)
}

func assertLogAttributeContains(t *testing.T, got map[string]any, wantKey string, wantValue any) {
	v := assertLogAttributeKey(t, got, wantKey)
	assert.Containsf(t, v, wantValue, "want log line to have key %q", wantKey)
}

func assertLogAttributeKey(t *testing.T, got map[string]any, wantKey string) any {
	v, ok := got[wantKey]
	assert.Truef(t, ok, "want log line to have key %q", wantKey)
	return v
}
