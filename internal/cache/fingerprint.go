// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/tomtom215/vestigium/internal/models"
)

// Fingerprint derives the cache key for a query: hex SHA-256 over the
// source name, the normalized query value, and the parameters in sorted
// key order. Two queries that differ only in parameter order or in
// investigation identity produce the same fingerprint, so cached results
// are shared across investigations.
func Fingerprint(q *models.Query) string {
	var b strings.Builder
	b.WriteString(q.Source)
	b.WriteByte('\n')
	b.WriteString(q.Value)
	b.WriteByte('\n')
	b.WriteString(canonicalParams(q.Parameters))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// canonicalParams renders parameters as "k=v" pairs joined by "&" in
// sorted key order. Nil and empty maps render identically.
func canonicalParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}
