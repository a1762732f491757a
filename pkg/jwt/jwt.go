package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"craz-web-meta/config"
)

var (
	ErrTokenExpired = errors.New("token 已过期")
	ErrTokenInvalid = errors.New("token 无效")
	// ErrDisabled 未配置 jwt_secret 时不签发也不接受 JWT
	ErrDisabled = errors.New("未配置 jwt_secret")
)

const issuer = "craz-web-meta"

// Claims 服务令牌声明
// Subject 为调用方标识（如 "dashboard"），Scope 为空格分隔的权限范围
type Claims struct {
	Scope string `json:"scope,omitempty"`
	jwtv5.RegisteredClaims
}

// Manager 服务令牌管理器
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager 创建令牌管理器
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
	}
}

// Enabled 是否配置了签名密钥
func (m *Manager) Enabled() bool {
	return len(m.secret) > 0
}

// GenerateToken 签发服务令牌，ttl <= 0 时使用配置的默认有效期
func (m *Manager) GenerateToken(subject, scope string, ttl time.Duration) (string, error) {
	if !m.Enabled() {
		return "", ErrDisabled
	}
	if ttl <= 0 {
		ttl = m.ttl
	}

	now := time.Now()
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   subject,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken 解析并验证 Token
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	if !m.Enabled() {
		return nil, ErrDisabled
	}

	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	}, jwtv5.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
