// Package respond writes the JSON envelope every API endpoint returns:
//
//	{ "status": "success"|"error", "message": "...", "data": ..., "meta": {...}, "errors": {...} }
//
// Error maps apperr kinds onto HTTP statuses. Anything unclassified is
// logged and answered as a generic 500 so internals never reach clients.
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/campusforum/internal/app/system/apperr"
	"github.com/dalemusser/campusforum/internal/app/system/paging"
	"go.uber.org/zap"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// Envelope is the response body shape.
type Envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Meta    *paging.Meta      `json:"meta,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// JSON writes env with the given status code.
func JSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusOK, Envelope{Status: StatusSuccess, Message: message, Data: data})
}

// Created writes a 201 success envelope.
func Created(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusCreated, Envelope{Status: StatusSuccess, Message: message, Data: data})
}

// List writes a 200 success envelope with pagination meta.
func List(w http.ResponseWriter, message string, data any, meta paging.Meta) {
	JSON(w, http.StatusOK, Envelope{Status: StatusSuccess, Message: message, Data: data, Meta: &meta})
}

// Error writes the error envelope for err. Internal errors are logged with
// the request path when log is non-nil.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	msg := apperr.PublicMessage(err)

	if kind == apperr.KindInternal || msg == "" {
		if log != nil {
			log.Error("request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Error(err))
		}
		JSON(w, http.StatusInternalServerError, Envelope{Status: StatusError, Message: "internal server error"})
		return
	}

	JSON(w, kind.Status(), Envelope{
		Status:  StatusError,
		Message: msg,
		Errors:  apperr.FieldsOf(err),
	})
}

// ErrBadBody is returned by Decode for unreadable JSON.
var ErrBadBody = apperr.Validation("request body must be valid JSON")

// Decode reads a JSON body into dst. Unknown fields are ignored so update
// handlers can apply their own whitelist. An empty body decodes to dst
// unchanged.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return ErrBadBody.Wrap(err)
	}
	return nil
}
