// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package connector

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/models"
)

const (
	userAgent = "vestigium/1.0 (+https://github.com/tomtom215/vestigium)"

	// defaultMaxBody caps response bodies at 1 MiB. Larger bodies are
	// truncated, never rejected; the parser still works on the prefix.
	defaultMaxBody = 1 << 20

	defaultTimeout = 30 * time.Second
)

// httpClient is the shared transport for all adapters: per-request deadline,
// size-capped body reads, classified errors.
type httpClient struct {
	client  *http.Client
	maxBody int64
	timeout time.Duration
}

func newHTTPClient(timeout time.Duration) *httpClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &httpClient{
		client: &http.Client{
			// The outer ctx deadline governs; this is a hard stop for
			// requests issued without one.
			Timeout: timeout + 5*time.Second,
		},
		maxBody: defaultMaxBody,
		timeout: timeout,
	}
}

// fetchResult is one retrieved document before it becomes a RawResult.
type fetchResult struct {
	body      []byte
	mediaType string
	truncated bool
}

// get performs one GET with the adapter's deadline applied. Non-2xx
// statuses and transport failures come back as classified *fault.Error.
func (c *httpClient) get(ctx context.Context, url string, headers map[string]string) (*fetchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fault.Wrap(fault.KindInternal, "build request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.5")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fault.Wrap(fault.Classify(err), "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 512)
		return nil, fault.Newf(fault.FromHTTPStatus(resp.StatusCode), "upstream returned %d", resp.StatusCode)
	}

	// Read one byte past the cap to learn whether truncation happened.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fault.Wrap(fault.Classify(err), "read body", err)
	}

	truncated := false
	if int64(len(body)) > c.maxBody {
		body = body[:c.maxBody]
		truncated = true
	}

	return &fetchResult{
		body:      body,
		mediaType: normalizeMediaType(resp.Header.Get("Content-Type")),
		truncated: truncated,
	}, nil
}

// normalizeMediaType reduces a Content-Type header to one of the parser's
// dispatch values. Unknown types pass through for the parser to reject.
func normalizeMediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil || mt == "" {
		return models.MediaTypeText
	}
	switch {
	case mt == "text/html" || mt == "application/xhtml+xml":
		return models.MediaTypeHTML
	case mt == "application/json" || strings.HasSuffix(mt, "+json"):
		return models.MediaTypeJSON
	case mt == "application/xml" || mt == "text/xml" || strings.HasSuffix(mt, "+xml"):
		return models.MediaTypeXML
	case strings.HasPrefix(mt, "text/"):
		return models.MediaTypeText
	default:
		return mt
	}
}

// newRawResult assembles a RawResult from a fetched document, attaching the
// connector's metadata hints for the parser.
func newRawResult(q *models.Query, source, url string, fr *fetchResult, meta map[string]string) models.RawResult {
	r := models.RawResult{
		ID:          uuid.New().String(),
		QueryID:     q.ID,
		Source:      source,
		URL:         url,
		MediaType:   fr.mediaType,
		Truncated:   fr.truncated,
		Metadata:    meta,
		RetrievedAt: time.Now().UTC(),
	}
	r.SetContent(fr.body)
	if fr.truncated {
		r.SecurityFlags = append(r.SecurityFlags, models.FlagOversized)
	}
	return r
}

// budget resolves the effective hourly budget: config override wins over
// the adapter's declared default.
func budget(override, fallback int) int {
	if override > 0 {
		return override
	}
	return fallback
}

// base resolves the effective base URL: config override wins over the
// adapter's default endpoint. Tests point adapters at httptest servers
// this way.
func base(override, fallback string) string {
	if override != "" {
		return strings.TrimRight(override, "/")
	}
	return fallback
}

// wrapSearchErr annotates a search failure with source and query identity.
func wrapSearchErr(err error, source string, q *models.Query) ([]models.RawResult, error) {
	var fe *fault.Error
	if errors.As(err, &fe) {
		return nil, fe.WithSource(source).WithQuery(q.ID)
	}
	return nil, fault.Wrap(fault.Classify(err), "search failed", err).
		WithSource(source).WithQuery(q.ID)
}
