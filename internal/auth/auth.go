// Package auth проверяет JWT, выданные внешним провайдером идентификации,
// и токен планировщика.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/senyabanana/bid-tracker/internal/utils"

	"github.com/golang-jwt/jwt/v5"
)

// Роли пользователей.
const (
	RoleConsultant = "consultant"
	RoleAdmin      = "admin"
	RoleClient     = "client"
)

// ErrInvalidToken - токен отсутствует, подделан или истёк.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims - полезная нагрузка JWT. Subject - ID пользователя у провайдера.
type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type claimsKey struct{}

// Verifier проверяет подпись HS256.
type Verifier struct {
	secret []byte
}

// NewVerifier создаёт Verifier с общим секретом провайдера.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Parse проверяет токен и возвращает его claims.
func (v *Verifier) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	return claims, nil
}

// GenerateToken выпускает токен. Нужен для тестов и локальной разработки:
// в рабочем окружении токены выдаёт провайдер.
func GenerateToken(secret, subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Middleware пропускает запросы с валидным Bearer-токеном одной из ролей roles
// и кладёт claims в контекст.
func (v *Verifier) Middleware(next http.Handler, roles ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearer(r)
		if !ok {
			utils.SendErrorResponse(w, http.StatusUnauthorized, "authorization header is required")
			return
		}
		claims, err := v.Parse(tokenString)
		if err != nil {
			utils.SendErrorResponse(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		if !hasRole(claims.Role, roles) {
			utils.SendErrorResponse(w, http.StatusForbidden, "you do not have permission to access this resource")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// SchedulerMiddleware пропускает запросы с общим секретом планировщика.
// Пустой секрет запрещает вызов.
func SchedulerMiddleware(secret string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearer(r)
		if !ok || secret == "" || subtle.ConstantTimeCompare([]byte(tokenString), []byte(secret)) != 1 {
			utils.SendErrorResponse(w, http.StatusUnauthorized, "invalid scheduler token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithClaims кладёт claims в контекст.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// FromContext достаёт claims, положенные Middleware.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok
}

func bearer(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	tokenString := strings.TrimPrefix(header, "Bearer ")
	if header == "" || tokenString == header || tokenString == "" {
		return "", false
	}
	return tokenString, true
}

func hasRole(role string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
