// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vestigium/internal/fault"
	"github.com/tomtom215/vestigium/internal/logging"
	"github.com/tomtom215/vestigium/internal/models"
	"github.com/tomtom215/vestigium/internal/validation"
)

// respond writes a success envelope.
func respond(w http.ResponseWriter, status int, data interface{}, started time.Time) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: time.Since(started).Milliseconds(),
		},
	}); err != nil {
		logger := logging.WithComponent("api")
		logger.Error().Err(err).Msg("encode response")
	}
}

// respondErr maps the error to a status code and writes the error
// envelope. Validation errors carry field detail; everything else maps
// through the fault kind.
func respondErr(w http.ResponseWriter, err error) {
	var ve *validation.RequestValidationError
	if errors.As(err, &ve) {
		apiErr := ve.ToAPIError()
		writeError(w, http.StatusBadRequest, &models.APIError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		})
		return
	}

	kind := fault.KindOf(err)
	writeError(w, fault.HTTPStatus(kind), &models.APIError{
		Code:    fault.Code(kind),
		Message: publicMessage(err, kind),
	})
}

// publicMessage keeps internal failure detail out of responses.
func publicMessage(err error, kind fault.Kind) string {
	if kind == fault.KindInternal {
		return "internal error"
	}
	return err.Error()
}

func writeError(w http.ResponseWriter, status int, apiErr *models.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(models.APIResponse{
		Status:   "error",
		Error:    apiErr,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	}); err != nil {
		logger := logging.WithComponent("api")
		logger.Error().Err(err).Msg("encode error response")
	}
}

// decodeBody parses a JSON request body into dst with a size cap.
func decodeBody(r *http.Request, dst interface{}) error {
	const maxBodySize = 1 << 20 // 1 MiB

	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fault.Wrap(fault.KindValidation, "decode request body", err)
	}
	return nil
}
