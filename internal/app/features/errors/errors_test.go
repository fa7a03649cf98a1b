package errors_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	uierrors "github.com/dalemusser/campusforum/internal/app/features/errors"
	"github.com/dalemusser/campusforum/internal/testutil"
)

func TestHandlers(t *testing.T) {
	h := uierrors.NewHandler()

	tests := []struct {
		name     string
		serve    http.HandlerFunc
		method   string
		wantCode int
		wantMsg  string
	}{
		{"not found", h.NotFound, "GET", http.StatusNotFound, "resource not found"},
		{"method not allowed", h.MethodNotAllowed, "PATCH", http.StatusMethodNotAllowed, "method PATCH not allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.serve(rec, httptest.NewRequest(tt.method, "/nowhere", nil))

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			env := testutil.DecodeEnvelope(t, rec, nil)
			if env.Status != "error" || env.Message != tt.wantMsg {
				t.Errorf("envelope = %+v", env)
			}
		})
	}
}
