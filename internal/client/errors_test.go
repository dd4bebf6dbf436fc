package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		notFoundStatus int
		want           error
	}{
		{"ok", http.StatusOK, http.StatusNotFound, nil},
		{"created", http.StatusCreated, http.StatusNotFound, nil},
		{"unauthorized", http.StatusUnauthorized, http.StatusNotFound, ErrInvalidAPIKey},
		{"rate limited", http.StatusTooManyRequests, http.StatusNotFound, ErrRateLimited},
		{"not found primary", http.StatusNotFound, http.StatusNotFound, ErrLocationNotFound},
		{"not found secondary", http.StatusBadRequest, http.StatusBadRequest, ErrLocationNotFound},
		{"bad request elsewhere", http.StatusBadRequest, http.StatusNotFound, ErrUpstreamFailure},
		{"server error", http.StatusInternalServerError, http.StatusNotFound, ErrUpstreamFailure},
		{"bad gateway", http.StatusBadGateway, http.StatusNotFound, ErrUpstreamFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyStatus(tt.status, tt.notFoundStatus)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("classifyStatus(%d) = %v, want nil", tt.status, err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("classifyStatus(%d) = %v, want %v", tt.status, err, tt.want)
			}
		})
	}
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, ""},
		{"deadline", context.DeadlineExceeded, ErrorCategoryTimeout},
		{"canceled", context.Canceled, ErrorCategoryTimeout},
		{"invalid key", fmt.Errorf("call: %w", ErrInvalidAPIKey), ErrorCategoryInvalidAPIKey},
		{"not found", fmt.Errorf("call: %w", ErrLocationNotFound), ErrorCategoryLocationNotFound},
		{"rate limited", fmt.Errorf("call: %w", ErrRateLimited), ErrorCategoryRateLimited},
		{"upstream", fmt.Errorf("call: %w", ErrUpstreamFailure), ErrorCategoryUpstream},
		{"timeout text", errors.New("request timeout"), ErrorCategoryTimeout},
		{"network text", errors.New("connection refused"), ErrorCategoryNetwork},
		{"parsing text", errors.New("parse response: bad json"), ErrorCategoryParsing},
		{"other", errors.New("something odd"), ErrorCategoryUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CategorizeError(tt.err); got != tt.want {
				t.Errorf("CategorizeError(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
