// Vestigium - OSINT Investigation Pipeline and Digital Footprint Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vestigium

package validation

import (
	"strings"
	"testing"
)

type seedRequest struct {
	FullName string   `validate:"required,min=2,max=200"`
	Emails   []string `validate:"max=3,dive,email"`
	Phones   []string `validate:"max=2,dive,e164"`
	Country  string   `validate:"omitempty,country2"`
	Depth    int      `validate:"omitempty,min=1,max=10"`
}

func TestValidateStructPasses(t *testing.T) {
	req := seedRequest{
		FullName: "Alice Roe",
		Emails:   []string{"alice@example.com"},
		Phones:   []string{"+14155550100"},
		Country:  "us",
		Depth:    3,
	}
	if err := ValidateStruct(&req); err != nil {
		t.Fatalf("expected valid struct, got: %v", err)
	}
}

func TestValidateStructRequired(t *testing.T) {
	req := seedRequest{}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error for missing FullName")
	}
	if !strings.Contains(err.Error(), "FullName is required") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestValidateStructBadEmail(t *testing.T) {
	req := seedRequest{FullName: "Alice Roe", Emails: []string{"not-an-email"}}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error for bad email")
	}
	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR code, got %s", apiErr.Code)
	}
}

func TestValidateStructBadPhone(t *testing.T) {
	req := seedRequest{FullName: "Alice Roe", Phones: []string{"555-0100"}}
	if err := ValidateStruct(&req); err == nil {
		t.Fatal("expected validation error for non-E.164 phone")
	}
}

func TestValidateStructCountry2(t *testing.T) {
	tests := []struct {
		name    string
		country string
		valid   bool
	}{
		{"uppercase", "US", true},
		{"lowercase", "de", true},
		{"mixed", "Gb", true},
		{"too long", "USA", false},
		{"digits", "4X", false},
		{"empty allowed via omitempty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := seedRequest{FullName: "Alice Roe", Country: tt.country}
			err := ValidateStruct(&req)
			if tt.valid && err != nil {
				t.Errorf("expected %q to validate, got: %v", tt.country, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("expected %q to fail validation", tt.country)
			}
		})
	}
}

func TestValidateStructDepthRange(t *testing.T) {
	req := seedRequest{FullName: "Alice Roe", Depth: 11}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation error for depth > 10")
	}
	if !strings.Contains(err.Error(), "at most 10") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestToAPIErrorMultipleFields(t *testing.T) {
	req := seedRequest{
		Emails: []string{"bad"},
		Phones: []string{"bad"},
	}
	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	apiErr := err.ToAPIError()
	if apiErr.Details == nil {
		t.Fatal("expected details for multiple errors")
	}
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Error("expected fields list in details")
	}
}

func TestGetValidatorSingleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()
	if v1 != v2 {
		t.Error("GetValidator must return the same instance")
	}
}
