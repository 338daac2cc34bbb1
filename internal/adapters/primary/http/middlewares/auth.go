package middlewares

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Aagam-Bothara/astranum-sub001/internal/adapters/primary/http/controllers"
)

const userIDKey = "user_id"

type AuthConfig struct {
	Secret string        `envconfig:"SECRET"`
	Issuer string        `envconfig:"ISSUER"` // пусто = не проверяется
	Leeway time.Duration `envconfig:"LEEWAY" default:"30s"`
}

// Auth проверяет Bearer JWT (HS256) и кладёт user_id из claims в контекст
func Auth(cfg AuthConfig, log *slog.Logger) gin.HandlerFunc {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)
	secret := []byte(cfg.Secret)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			controllers.Abort(c, http.StatusUnauthorized, controllers.CodeUnauthorized, "missing or invalid token")
			return
		}

		userID, err := parseUserID(parser, secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			log.Debug("rejected token",
				"path", c.FullPath(),
				"error", err,
			)
			controllers.Abort(c, http.StatusUnauthorized, controllers.CodeUnauthorized, "invalid token")
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func parseUserID(parser *jwt.Parser, secret []byte, tokenStr string) (uuid.UUID, error) {
	claims := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	if !token.Valid {
		return uuid.Nil, errors.New("token is not valid")
	}

	raw, _ := claims[userIDKey].(string)
	if raw == "" {
		// токены внешнего провайдера кладут пользователя в sub
		raw, _ = claims["sub"].(string)
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user_id claim: %w", err)
	}
	return userID, nil
}

// UserID пользователь, установленный Auth
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return uuid.Nil, false
	}
	userID, ok := v.(uuid.UUID)
	return userID, ok
}

// AdminToken пропускает запросы со статическим токеном в X-Admin-Token
func AdminToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" || c.GetHeader("X-Admin-Token") != token {
			controllers.Abort(c, http.StatusUnauthorized, controllers.CodeUnauthorized, "invalid admin token")
			return
		}
		c.Next()
	}
}
