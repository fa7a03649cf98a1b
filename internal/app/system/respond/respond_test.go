package respond_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/app/system/paging"
	"github.com/dalemusser/campusforum/internal/app/system/respond"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestOK(t *testing.T) {
	rec := httptest.NewRecorder()
	respond.OK(rec, "fetched", map[string]string{"id": "1"})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := decode(t, rec)
	if body["status"] != "success" || body["message"] != "fetched" {
		t.Errorf("unexpected envelope: %v", body)
	}
	if _, ok := body["meta"]; ok {
		t.Error("meta should be omitted")
	}
}

func TestList_IncludesMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	p := paging.Params{Page: 2, PerPage: 10}
	respond.List(rec, "", []int{}, p.MetaFor(35))

	body := decode(t, rec)
	meta, ok := body["meta"].(map[string]any)
	if !ok {
		t.Fatalf("meta missing: %v", body)
	}
	if meta["page"] != float64(2) || meta["per_page"] != float64(10) || meta["total"] != float64(35) || meta["total_pages"] != float64(4) {
		t.Errorf("meta = %v", meta)
	}
	if data, ok := body["data"].([]any); !ok || len(data) != 0 {
		t.Errorf("empty list should render as [], got %v", body["data"])
	}
}

func TestError_Kinds(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", apperr.NotFound("group not found"), http.StatusNotFound, "group not found"},
		{"validation", apperr.Validation("bad role"), http.StatusBadRequest, "bad role"},
		{"forbidden", apperr.Forbidden("nope"), http.StatusForbidden, "nope"},
		{"auth", apperr.Auth("token expired"), http.StatusUnauthorized, "token expired"},
		{"conflict", apperr.Conflict("retry"), http.StatusConflict, "retry"},
		{"no documents", mongo.ErrNoDocuments, http.StatusNotFound, "not found"},
		{"internal", errors.New("socket closed at 10.0.0.3"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			respond.Error(rec, req, zap.NewNop(), tt.err)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			body := decode(t, rec)
			if body["status"] != "error" {
				t.Errorf("status field = %v", body["status"])
			}
			if body["message"] != tt.message {
				t.Errorf("message = %v, want %q", body["message"], tt.message)
			}
		})
	}
}

func TestError_FieldErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	respond.Error(rec, req, nil, apperr.Validation("invalid input").WithField("name", "required"))

	body := decode(t, rec)
	fields, ok := body["errors"].(map[string]any)
	if !ok || fields["name"] != "required" {
		t.Errorf("errors = %v", body["errors"])
	}
}

func TestDecode(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"name":"chess","extra":1}`))
	if err := respond.Decode(rec, req, &dst); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if dst.Name != "chess" {
		t.Errorf("Name = %q", dst.Name)
	}

	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"name":`))
	err := respond.Decode(rec, req, &dst)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("malformed body err = %v, want validation", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(""))
	if err := respond.Decode(rec, req, &dst); err != nil {
		t.Errorf("empty body err = %v, want nil", err)
	}
}
