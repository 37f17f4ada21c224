// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

// Package models defines the shared data types that flow through the
// investigation pipeline: the subject seed, planned queries, raw fetch
// results, extracted entity candidates, normalized and resolved entities,
// timeline events, risk assessments, reports, and the investigation record
// itself.
//
// Types here are plain data with explicit fields. Pipeline stages own their
// processing state; models carries only what crosses component boundaries
// or the API surface.
package models
