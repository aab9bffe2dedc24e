package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/schemahub/schemahub/internal/auth"
	"github.com/schemahub/schemahub/internal/model"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", fmt.Errorf("%w: retention days must be at least 1", model.ErrInvalidInput), http.StatusBadRequest},
		{"not found", fmt.Errorf("product: %w", model.ErrNotFound), http.StatusNotFound},
		{"already subscribed", model.ErrAlreadySubscribed, http.StatusConflict},
		{"not subscribed", model.ErrNotSubscribed, http.StatusNotFound},
		{"not initialized", model.ErrNotInitialized, http.StatusServiceUnavailable},
		{"no user", auth.ErrNoUser, http.StatusUnauthorized},
		{"unknown", fmt.Errorf("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)
			if rec.Code != tt.want {
				t.Fatalf("expected status %d for %v, got %d", tt.want, tt.err, rec.Code)
			}
		})
	}
}
