package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/redisctl/im-redis/internal/errdef"
	"github.com/redisctl/im-redis/pkg/model"
)

// NewAuthentication creates the authentication middleware verifying tokens with given PEM encoded
// RSA public key.
func NewAuthentication(logger *slog.Logger, publicKey string) (AuthenticationMiddleware, error) {
	key, err := jwk.ParseKey([]byte(publicKey), jwk.WithPEM(true))
	if err != nil {
		return AuthenticationMiddleware{}, errors.New("failed to parse authentication public key")
	}

	return AuthenticationMiddleware{
		logger:    logger,
		publicKey: key,
	}, nil
}

type AuthenticationMiddleware struct {
	logger    *slog.Logger
	publicKey jwk.Key
}

func (m AuthenticationMiddleware) TokenAuthentication(c *gin.Context) {
	user, err := parseRequest(c.Request, m.publicKey)
	if err != nil {
		m.logger.InfoContext(c.Request.Context(), "Token not valid", "error", err)
		_ = c.Error(errdef.NewUnauthorized("token not valid"))
		c.Abort()
		return
	}

	// Extra precaution to ensure that no errors has occurred, and it's safe to call c.Next()
	if len(c.Errors.Errors()) > 0 {
		c.Abort()
		return
	}

	c.Set("user", user)
	c.Request = c.Request.WithContext(model.NewContextWithUser(c.Request.Context(), user))
	c.Next()
}

func parseRequest(request *http.Request, key jwk.Key) (*model.User, error) {
	token, err := jwt.ParseRequest(
		request,
		jwt.WithKey(jwa.RS256, key),
		jwt.WithHeaderKey("Authorization"),
		jwt.WithCookieKey("accessToken"),
	)
	if err != nil {
		return nil, err
	}

	return extractUser(token)
}

func extractUser(token jwt.Token) (*model.User, error) {
	userData, ok := token.Get("user")
	if !ok {
		return nil, errors.New("user not found in claims")
	}

	bytes, err := json.Marshal(userData)
	if err != nil {
		return nil, err
	}

	user := &model.User{}
	err = json.Unmarshal(bytes, user)
	return user, err
}
