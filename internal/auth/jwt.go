// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/pelixflow/internal/config"
)

// ErrNoSubject is returned for a valid token that names no user.
var ErrNoSubject = errors.New("token has no user claim or subject")

// Principal is the authenticated caller extracted from a token.
type Principal struct {
	UserKey string
	Email   string
	Name    string
}

// JWTManager validates HS256 bearer tokens issued by the identity provider.
type JWTManager struct {
	secret    []byte
	userClaim string
}

// NewJWTManager creates a manager from the security configuration.
func NewJWTManager(cfg config.SecurityConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}
	claim := cfg.UserClaim
	if claim == "" {
		claim = "userId"
	}
	return &JWTManager{secret: []byte(cfg.JWTSecret), userClaim: claim}, nil
}

// GenerateToken signs a token for p valid for ttl. The server never issues
// tokens itself; this exists for tooling and tests.
func (m *JWTManager) GenerateToken(p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		m.userClaim: p.UserKey,
		"sub":       p.UserKey,
		"iat":       now.Unix(),
		"nbf":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}
	if p.Email != "" {
		claims["email"] = p.Email
	}
	if p.Name != "" {
		claims["name"] = p.Name
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies the signature and time claims of tokenString and
// returns its principal. The user key is the configured user claim,
// falling back to "sub".
func (m *JWTManager) ValidateToken(tokenString string) (*Principal, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	p := &Principal{
		UserKey: stringClaim(claims, m.userClaim),
		Email:   stringClaim(claims, "email"),
		Name:    stringClaim(claims, "name"),
	}
	if p.UserKey == "" {
		sub, _ := claims.GetSubject()
		p.UserKey = strings.TrimSpace(sub)
	}
	if p.UserKey == "" {
		return nil, ErrNoSubject
	}
	return p, nil
}

func stringClaim(claims jwt.MapClaims, name string) string {
	s, _ := claims[name].(string)
	return strings.TrimSpace(s)
}
