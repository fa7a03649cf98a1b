// Package inputval validates decoded request bodies using struct tags:
//
//	type createGroup struct {
//	    Name       string `json:"name" validate:"required,max=100" label:"Name"`
//	    Visibility string `json:"visibility" validate:"oneof=open closed secret" label:"Visibility"`
//	}
//
// Supported rules: required, nonblank, min=N, max=N (runes for strings,
// length for slices), email, httpurl, objectid, oneof=a b c. Rules other
// than required and nonblank are skipped for empty values. nonblank is for
// optional pointer fields of update bodies: absent is fine, present but
// blank is not. httpurl also applies to each element of a []string.
package inputval

import (
	"fmt"
	"net/mail"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string // JSON name
	Message string
}

// Result collects the failures of one Validate call.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First is the first message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every message with "; ".
func (r *Result) All() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

// Err converts the result to a validation error carrying per-field
// messages, or nil when everything passed.
func (r *Result) Err() error {
	if !r.HasErrors() {
		return nil
	}
	e := apperr.Validation(r.First())
	for _, fe := range r.Errors {
		if _, dup := e.Fields[fe.Field]; !dup {
			e = e.WithField(fe.Field, fe.Message)
		}
	}
	return e
}

// IsValidEmail accepts a bare addr-spec: no display name, no spaces, and
// no leading, trailing, or doubled dots in either part.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t<>") {
		return false
	}
	a, err := mail.ParseAddress(s)
	if err != nil || a.Name != "" || a.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	local, domain := s[:at], s[at+1:]
	return dotAtomOK(local) && dotAtomOK(domain)
}

func dotAtomOK(s string) bool {
	return s != "" && !strings.HasPrefix(s, ".") && !strings.HasSuffix(s, ".") && !strings.Contains(s, "..")
}

// IsValidHTTPURL accepts absolute http and https URLs with a host.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsValidObjectID accepts 24 hex characters, surrounding space ignored.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}

// Validate checks every tagged field of the struct v (or pointer to one).
func Validate(v any) *Result {
	res := &Result{}
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return res
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		tag := sf.Tag.Get("validate")
		if tag == "" || !sf.IsExported() {
			continue
		}
		label := sf.Tag.Get("label")
		if label == "" {
			label = sf.Name
		}
		field := jsonName(sf)
		fv := rv.Field(i)
		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				if hasRule(tag, "required") {
					res.add(field, label+" is required.")
				}
				continue
			}
			fv = fv.Elem()
		}
		if msg := check(fv, tag, label); msg != "" {
			res.add(field, msg)
		}
	}
	return res
}

func (r *Result) add(field, msg string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: msg})
}

func jsonName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return strings.ToLower(sf.Name)
	}
	return name
}

func hasRule(tag, rule string) bool {
	for _, r := range strings.Split(tag, ",") {
		if r == rule {
			return true
		}
	}
	return false
}

// check returns the first failing rule's message for fv.
func check(fv reflect.Value, tag, label string) string {
	empty := isEmpty(fv)
	for _, rule := range strings.Split(tag, ",") {
		name, arg, _ := strings.Cut(rule, "=")
		if name == "required" {
			if empty {
				return label + " is required."
			}
			continue
		}
		if name == "nonblank" {
			if empty {
				return label + " cannot be blank."
			}
			continue
		}
		if empty {
			return ""
		}
		switch name {
		case "min", "max":
			n, err := strconv.Atoi(arg)
			if err != nil {
				continue
			}
			l := length(fv)
			if name == "min" && l < n {
				return fmt.Sprintf("%s must be at least %d %s.", label, n, unit(fv))
			}
			if name == "max" && l > n {
				return fmt.Sprintf("%s must be at most %d %s.", label, n, unit(fv))
			}
		case "email":
			if !IsValidEmail(fv.String()) {
				return "A valid email address is required."
			}
		case "httpurl":
			if fv.Kind() == reflect.Slice {
				for j := 0; j < fv.Len(); j++ {
					if !IsValidHTTPURL(fv.Index(j).String()) {
						return label + " must contain only http(s) URLs."
					}
				}
				continue
			}
			if !IsValidHTTPURL(fv.String()) {
				return label + " must be a valid http(s) URL."
			}
		case "objectid":
			if !IsValidObjectID(fv.String()) {
				return label + " is not a valid ID."
			}
		case "oneof":
			allowed := strings.Fields(arg)
			ok := false
			for _, a := range allowed {
				if fv.String() == a {
					ok = true
					break
				}
			}
			if !ok {
				return fmt.Sprintf("%s must be one of: %s.", label, strings.Join(allowed, ", "))
			}
		}
	}
	return ""
}

func isEmpty(fv reflect.Value) bool {
	switch fv.Kind() {
	case reflect.String:
		return strings.TrimSpace(fv.String()) == ""
	case reflect.Slice, reflect.Map:
		return fv.Len() == 0
	default:
		return fv.IsZero()
	}
}

func length(fv reflect.Value) int {
	if fv.Kind() == reflect.String {
		return utf8.RuneCountInString(strings.TrimSpace(fv.String()))
	}
	if fv.Kind() == reflect.Slice || fv.Kind() == reflect.Map {
		return fv.Len()
	}
	return 0
}

func unit(fv reflect.Value) string {
	if fv.Kind() == reflect.String {
		return "characters"
	}
	return "items"
}
