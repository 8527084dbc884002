package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/reanayou-arch/Horror-Studio-Bot/internal/models"
)

// SourceServiceKey — ключ gin-контекста с именем сервиса-источника запроса.
const SourceServiceKey = "source_service"

// TokenVerifier проверяет межсервисный JWT и возвращает имя сервиса-источника.
type TokenVerifier interface {
	VerifyInterServiceToken(tokenString string) (string, error)
}

// JWTVerifier проверяет JWT токены, подписанные общим секретом (HS256).
type JWTVerifier struct {
	jwtSecret string
	logger    *zap.Logger
}

var _ TokenVerifier = (*JWTVerifier)(nil)

// NewJWTVerifier создает новый экземпляр JWTVerifier.
// Если логгер nil, используется Noop.
func NewJWTVerifier(jwtSecret string, logger *zap.Logger) (*JWTVerifier, error) {
	if jwtSecret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JWTVerifier{
		jwtSecret: jwtSecret,
		logger:    logger.Named("JWTVerifier"),
	}, nil
}

// VerifyInterServiceToken проверяет подпись и срок жизни токена.
// Имя сервиса-источника ожидается в claim "sub".
func (v *JWTVerifier) VerifyInterServiceToken(tokenString string) (string, error) {
	log := v.logger.With(zap.String("tokenSnippet", tokenSnippet(tokenString)))
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			log.Warn("Unexpected signing method", zap.Any("alg", token.Header["alg"]))
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(v.jwtSecret), nil
	})

	if err != nil {
		log.Warn("Failed to parse or verify token", zap.Error(err))
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", models.ErrTokenExpired
		} else if errors.Is(err, jwt.ErrTokenMalformed) {
			return "", models.ErrTokenMalformed
		} else if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return "", models.ErrTokenInvalid
		}
		return "", fmt.Errorf("%w: %v", models.ErrTokenInvalid, err)
	}

	if !token.Valid {
		log.Warn("Token is invalid despite no parsing error")
		return "", models.ErrTokenInvalid
	}

	if claims.Subject == "" {
		log.Warn("Token missing Subject (source service)")
		return "", fmt.Errorf("%w: subject missing", models.ErrTokenInvalid)
	}

	log.Debug("Token verified successfully", zap.String("sourceService", claims.Subject))
	return claims.Subject, nil
}

// InterServiceAuthMiddleware проверяет межсервисный JWT в заголовке Authorization.
// Сюда ходит только транспортный адаптер, пользовательских токенов нет.
func InterServiceAuthMiddleware(verifier TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.With(zap.String("path", c.Request.URL.Path))

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing inter-service token"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			log.Warn("Invalid Authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		sourceService, err := verifier.VerifyInterServiceToken(parts[1])
		if err != nil {
			status := http.StatusUnauthorized
			msg := "invalid inter-service token"
			switch {
			case errors.Is(err, models.ErrTokenExpired):
				msg = "inter-service token expired"
			case errors.Is(err, models.ErrTokenMalformed), errors.Is(err, models.ErrTokenInvalid):
				// Общее сообщение, детали только в логе
			default:
				log.Error("Unexpected inter-service token verification error", zap.Error(err))
				status = http.StatusInternalServerError
				msg = "internal error during token verification"
			}
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}

		c.Set(SourceServiceKey, sourceService)
		log.Debug("Inter-service request authorized", zap.String("sourceService", sourceService))
		c.Next()
	}
}

// tokenSnippet возвращает безопасную для логгирования часть токена.
func tokenSnippet(tokenString string) string {
	limit := 15
	if len(tokenString) > limit {
		return tokenString[:limit] + "..."
	}
	return tokenString
}
