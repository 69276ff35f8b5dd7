package auth

import (
	"errors"
	"fmt"
	"strings"

	apperrors "mizan_chat_go_backend/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/gorilla/websocket"
)

const operatorKey = "operator"

// AuthMiddleware requires an HS256 bearer token signed with secret.
// An empty secret disables the check.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		var token string
		if websocket.IsWebSocketUpgrade(c.Request) {
			token = c.Query("token")
		} else {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				apperrors.HandleError(c, apperrors.New401Error("Authorization header is required"))
				return
			}
			bearerToken := strings.Split(authHeader, " ")
			if len(bearerToken) != 2 || !strings.EqualFold(bearerToken[0], "Bearer") {
				apperrors.HandleError(c, apperrors.New401Error("Invalid authorization header"))
				return
			}
			token = bearerToken[1]
		}

		claims, err := VerifyToken(token, secret)
		if err != nil {
			apperrors.HandleError(c, apperrors.New401Error(err.Error()))
			return
		}

		subject, _ := claims["sub"].(string)
		c.Set(operatorKey, subject)
		c.Next()
	}
}

func VerifyToken(tokenString, secret string) (jwt.MapClaims, error) {
	if tokenString == "" {
		return nil, errors.New("token is required")
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// IssueToken signs an operator token; used by the CLI to mint credentials.
func IssueToken(subject, secret string, claims jwt.MapClaims) (string, error) {
	if claims == nil {
		claims = jwt.MapClaims{}
	}
	claims["sub"] = subject
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Operator returns the authenticated subject, if any.
func Operator(c *gin.Context) string {
	return c.GetString(operatorKey)
}
