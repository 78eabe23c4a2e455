// Translocus - Remote Media Scan Relay and Router Hosts Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/translocus

package validation

import (
	"strings"
	"testing"
)

type sample struct {
	Path      string `validate:"required"`
	MediaType string `validate:"omitempty,oneof=movie tv anime"`
	Port      int    `validate:"omitempty,min=1,max=65535"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		in      sample
		wantErr string
	}{
		{
			name: "valid",
			in:   sample{Path: "/media/a", MediaType: "movie", Port: 80},
		},
		{
			name:    "missing required",
			in:      sample{MediaType: "tv"},
			wantErr: "Path is required",
		},
		{
			name:    "bad enum",
			in:      sample{Path: "/a", MediaType: "podcast"},
			wantErr: "MediaType must be one of",
		},
		{
			name:    "out of range",
			in:      sample{Path: "/a", Port: 99999},
			wantErr: "Port must be at most 65535",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.in)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateStruct: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidateStructAggregatesFields(t *testing.T) {
	err := ValidateStruct(&sample{MediaType: "podcast"})
	if err == nil {
		t.Fatal("expected error")
	}
	verr, ok := err.(*Error)
	if !ok {
		t.Fatalf("error type %T, want *Error", err)
	}
	if len(verr.Fields) != 2 {
		t.Errorf("got %d field errors, want 2: %v", len(verr.Fields), verr.Fields)
	}
}
