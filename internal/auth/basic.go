// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/vestigium/internal/fault"
)

// bcryptCost trades hash time against brute-force resistance. 12 keeps
// verification under ~100ms on commodity hardware.
const bcryptCost = 12

// BasicManager verifies credentials against the single configured admin
// account. The password is hashed once at startup so requests only pay
// for comparison.
type BasicManager struct {
	username     string
	passwordHash []byte
}

// NewBasicManager hashes the configured password.
func NewBasicManager(username, password string) (*BasicManager, error) {
	if username == "" {
		return nil, fault.New(fault.KindValidation, "admin username is required")
	}
	if len(password) < 8 {
		return nil, fault.New(fault.KindValidation, "admin password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "hash password", err)
	}
	return &BasicManager{username: username, passwordHash: hash}, nil
}

// Verify checks a username/password pair. Both comparisons are
// constant-time.
func (m *BasicManager) Verify(username, password string) error {
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(m.username)) == 1
	passwordMatch := bcrypt.CompareHashAndPassword(m.passwordHash, []byte(password)) == nil

	if !usernameMatch || !passwordMatch {
		return fault.New(fault.KindUnauthorized, "invalid username or password")
	}
	return nil
}

// VerifyHeader validates an HTTP Basic Authorization header value and
// returns the username on success.
func (m *BasicManager) VerifyHeader(authHeader string) (string, error) {
	if !strings.HasPrefix(authHeader, "Basic ") {
		return "", fault.New(fault.KindUnauthorized, "authorization header is not Basic")
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(authHeader, "Basic "))
	if err != nil {
		return "", fault.New(fault.KindUnauthorized, "malformed basic credentials")
	}

	username, password, found := strings.Cut(string(decoded), ":")
	if !found {
		return "", fault.New(fault.KindUnauthorized, "malformed basic credentials")
	}

	if err := m.Verify(username, password); err != nil {
		return "", err
	}
	return username, nil
}
