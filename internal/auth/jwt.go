// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/vestigium/internal/fault"
)

// minSecretLen guards against trivially brute-forceable HMAC keys.
const minSecretLen = 32

// defaultSessionTimeout applies when security.session_timeout is unset.
const defaultSessionTimeout = 24 * time.Hour

// Claims are the token claims issued by the login endpoint.
type Claims struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// JWTManager mints and validates HS256 session tokens.
type JWTManager struct {
	secret  []byte
	timeout time.Duration
}

// NewJWTManager builds the manager. The secret must be at least 32
// characters; tokens expire after the session timeout.
func NewJWTManager(secret string, timeout time.Duration) (*JWTManager, error) {
	if len(secret) < minSecretLen {
		return nil, fault.Newf(fault.KindValidation, "jwt secret must be at least %d characters", minSecretLen)
	}
	if timeout <= 0 {
		timeout = defaultSessionTimeout
	}
	return &JWTManager{secret: []byte(secret), timeout: timeout}, nil
}

// Issue signs a token for an authenticated user.
func (m *JWTManager) Issue(username string, roles []string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: username,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.timeout)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fault.Wrap(fault.KindInternal, "sign token", err)
	}
	return signed, nil
}

// Validate parses and verifies a token, rejecting any signing method
// other than HMAC to close the algorithm confusion hole.
func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fault.Newf(fault.KindUnauthorized, "unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fault.Wrap(fault.KindUnauthorized, "parse token", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fault.New(fault.KindUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// Timeout returns the configured session lifetime, used for cookie
// expiry on login.
func (m *JWTManager) Timeout() time.Duration {
	return m.timeout
}
