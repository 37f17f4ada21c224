// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// MediaType values the parser dispatches on.
const (
	MediaTypeHTML = "text/html"
	MediaTypeJSON = "application/json"
	MediaTypeXML  = "application/xml"
	MediaTypeText = "text/plain"
)

// SecurityFlag marks content the parser identified as hostile. Flagged
// results are still processed; the offending spans are redacted.
type SecurityFlag string

// Security flags.
const (
	FlagSQLInjection     SecurityFlag = "sql_injection"
	FlagXSS              SecurityFlag = "xss"
	FlagCommandInjection SecurityFlag = "command_injection"
	FlagPathTraversal    SecurityFlag = "path_traversal"
	FlagOversized        SecurityFlag = "oversized"
)

// RawResult is one document returned by a connector, before parsing.
type RawResult struct {
	ID        string `json:"id"`
	QueryID   string `json:"query_id"`
	Source    string `json:"source"`
	URL       string `json:"url"`
	MediaType string `json:"media_type"`

	// Content is the response body, capped at the connector's size limit.
	Content []byte `json:"content"`

	// ContentHash is the hex SHA-256 of Content. Same bytes, same hash,
	// regardless of when or through which connector they arrived.
	ContentHash string `json:"content_hash"`

	// Truncated is set when Content was cut at the size cap.
	Truncated bool `json:"truncated,omitempty"`

	// SecurityFlags lists hostile patterns detected in Content.
	SecurityFlags []SecurityFlag `json:"security_flags,omitempty"`

	// Metadata carries connector-specific hints for the parser
	// (result rank, record type, schema version).
	Metadata map[string]string `json:"metadata,omitempty"`

	RetrievedAt time.Time `json:"retrieved_at"`
}

// HashContent computes the canonical content hash: hex-encoded SHA-256
// over the raw bytes. It is a pure function of content alone.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// SetContent stores content and its hash together so they cannot drift.
func (r *RawResult) SetContent(content []byte) {
	r.Content = content
	r.ContentHash = HashContent(content)
}
