// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package models

// CompareKeys entries. The normalizer writes these; the matcher and
// resolver read them. Two entities are pairwise comparable only when they
// share at least one key value (blocking).
const (
	KeyDeliverableEmail = "deliverable_key"
	KeyE164             = "e164"
	KeyLast7            = "last7"
	KeyCanonicalUser    = "canonical_username"
	KeyNameKey          = "name_key"
	KeyNamePhonetic     = "name_phonetic"
	KeyDomain           = "domain_key"
)
