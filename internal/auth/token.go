// Package auth は認証情報の検証とアクセストークンの発行・検証を提供する。
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/voacom/commercial-intelligence-system/internal/model"
)

// TokenManager はHMAC署名付きアクセストークンの発行と検証を行う。
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager はTokenManagerを生成する。
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue は指定ユーザーのアクセストークンを発行する。
// subjectにはメールアドレスを入れる。
func (m *TokenManager) Issue(email string) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify はトークンを検証し、subjectのメールアドレスを返す。
// 署名不正・期限切れ・subject欠落はいずれもUnauthorizedを返す。
func (m *TokenManager) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", model.NewUnauthorizedError()
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", model.NewUnauthorizedError()
	}
	return claims.Subject, nil
}
