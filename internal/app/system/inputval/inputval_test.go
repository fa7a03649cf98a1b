package inputval

import (
	"testing"

	"github.com/dalemusser/campusforum/internal/app/system/apperr"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		// Valid emails
		{"user@example.com", true},
		{"user.name@example.com", true},
		{"user+tag@example.com", true},
		{"user@subdomain.example.com", true},
		{"user123@example.co.uk", true},
		{"a@b.co", true},
		{"user@localhost", true},  // RFC 5322 allows single-label domains
		{"admin@mailserver", true}, // useful for dev/test environments

		// Invalid emails - empty/whitespace
		{"", false},
		{"   ", false},

		// Invalid emails - missing parts
		{"user", false},
		{"user@", false},
		{"@example.com", false},

		// Invalid emails - bad format (previously allowed by weak regex)
		{".user@example.com", false},   // leading dot in local
		{"user.@example.com", false},   // trailing dot in local
		{"user..name@example.com", false}, // consecutive dots
		{"user@.example.com", false},   // leading dot in domain
		{"user@example..com", false},   // consecutive dots in domain

		// Invalid emails - display name format (should be rejected)
		{"User Name <user@example.com>", false},

		// Invalid emails - other malformed
		{"user @example.com", false},  // space in local
		{"user@ example.com", false},  // space after @
		{"user@exam ple.com", false},  // space in domain
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			got := IsValidEmail(tt.email)
			if got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestIsValidHTTPURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"http://example.com", true},
		{"https://example.com/path?query=1", true},
		{"http://localhost:8080", true},
		{"  https://example.com  ", true},
		{"", false},
		{"ftp://example.com", false},
		{"mailto:user@example.com", false},
		{"example.com", false},
		{"//example.com", false},
		{"not a url", false},
		{"file:///path/to/file", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := IsValidHTTPURL(tt.url); got != tt.want {
				t.Errorf("IsValidHTTPURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestIsValidObjectID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"507f1f77bcf86cd799439011", true},
		{"FFFFFFFFFFFFFFFFFFFFFFFF", true},
		{"  507f1f77bcf86cd799439011  ", true},
		{"", false},
		{"507f1f77bcf86cd79943901", false},
		{"507f1f77bcf86cd79943901g", false},
		{"not-a-valid-id", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := IsValidObjectID(tt.id); got != tt.want {
				t.Errorf("IsValidObjectID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	type input struct {
		Name       string   `json:"name" validate:"required,max=10" label:"Name"`
		Email      string   `json:"email" validate:"required,email" label:"Email address"`
		Visibility string   `json:"visibility" validate:"oneof=open closed secret" label:"Visibility"`
		Photos     []string `json:"photo_urls" validate:"max=2,httpurl" label:"Photos"`
		Parent     *string  `json:"parent_id" validate:"objectid" label:"Parent"`
		Title      *string  `json:"title" validate:"nonblank,max=5" label:"Title"`
	}
	bad := "nope"
	blank := "  "
	short := "ok"

	tests := []struct {
		name      string
		input     input
		wantFirst string
		wantField string
	}{
		{name: "valid", input: input{Name: "John", Email: "john@example.com"}},
		{name: "missing name", input: input{Email: "john@example.com"}, wantFirst: "Name is required.", wantField: "name"},
		{name: "name too long", input: input{Name: "VeryLongNameThatExceedsLimit", Email: "john@example.com"}, wantFirst: "Name must be at most 10 characters.", wantField: "name"},
		{name: "invalid email", input: input{Name: "John", Email: "not-an-email"}, wantFirst: "A valid email address is required.", wantField: "email"},
		{name: "bad enum", input: input{Name: "John", Email: "j@x.io", Visibility: "public"}, wantFirst: "Visibility must be one of: open, closed, secret.", wantField: "visibility"},
		{name: "too many photos", input: input{Name: "John", Email: "j@x.io", Photos: []string{"http://a", "http://b", "http://c"}}, wantFirst: "Photos must be at most 2 items.", wantField: "photo_urls"},
		{name: "bad photo url", input: input{Name: "John", Email: "j@x.io", Photos: []string{"ftp://a"}}, wantFirst: "Photos must contain only http(s) URLs.", wantField: "photo_urls"},
		{name: "bad pointer id", input: input{Name: "John", Email: "j@x.io", Parent: &bad}, wantFirst: "Parent is not a valid ID.", wantField: "parent_id"},
		{name: "missing both", input: input{}, wantFirst: "Name is required.", wantField: "name"},
		{name: "absent optional title", input: input{Name: "John", Email: "j@x.io", Title: nil}},
		{name: "present title", input: input{Name: "John", Email: "j@x.io", Title: &short}},
		{name: "blank title", input: input{Name: "John", Email: "j@x.io", Title: &blank}, wantFirst: "Title cannot be blank.", wantField: "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.input)
			if res.HasErrors() != (tt.wantFirst != "") {
				t.Fatalf("HasErrors = %v, errors %v", res.HasErrors(), res.Errors)
			}
			if tt.wantFirst == "" {
				if res.Err() != nil {
					t.Errorf("Err() = %v, want nil", res.Err())
				}
				return
			}
			if res.First() != tt.wantFirst {
				t.Errorf("First() = %q, want %q", res.First(), tt.wantFirst)
			}
			err := res.Err()
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("Err() kind = %v", apperr.KindOf(err))
			}
			if _, ok := apperr.FieldsOf(err)[tt.wantField]; !ok {
				t.Errorf("field %q missing from %v", tt.wantField, apperr.FieldsOf(err))
			}
		})
	}
}

func TestResult_All(t *testing.T) {
	r := &Result{}
	if r.All() != "" || r.First() != "" {
		t.Errorf("empty result: All=%q First=%q", r.All(), r.First())
	}
	r = &Result{Errors: []FieldError{{Message: "Error 1"}, {Message: "Error 2"}}}
	if r.All() != "Error 1; Error 2" {
		t.Errorf("All() = %q", r.All())
	}
	if r.First() != "Error 1" {
		t.Errorf("First() = %q", r.First())
	}
}
