// Package httpx holds the JSON response helpers shared by all HTTP handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"rocr/backend/internal/db"
	"rocr/backend/internal/platform/apperror"
	"rocr/backend/internal/platform/validation"
)

// maxBodyBytes bounds request bodies; contact messages are the largest payload.
const maxBodyBytes = 1 << 20

// Envelope wraps successful responses.
type Envelope struct {
	Data any `json:"data"`
	Meta any `json:"meta,omitempty"`
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Data writes {"data": v}.
func Data(w http.ResponseWriter, status int, v any) {
	JSON(w, status, Envelope{Data: v})
}

// Message writes {"data": {"message": msg}} with 200.
func Message(w http.ResponseWriter, msg string) {
	Data(w, http.StatusOK, map[string]string{"message": msg})
}

// HandlerFunc is an http.HandlerFunc that reports failures by returning them.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Renderer turns errors into JSON responses. In production, unexpected errors
// are reported with a generic message; otherwise their text is returned to ease debugging.
type Renderer struct {
	Production bool
}

// Handle adapts fn to http.HandlerFunc, rendering any returned error.
func (rd *Renderer) Handle(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			rd.Error(w, r, err)
		}
	}
}

// Error writes err as {"error", "code", ...}.
func (rd *Renderer) Error(w http.ResponseWriter, r *http.Request, err error) {
	ae, ok := apperror.As(err)
	switch {
	case ok:
	case db.IsUniqueViolation(err):
		ae = apperror.Conflict(apperror.CodeDuplicateEntry, "Resource already exists").Wrap(err)
	case db.IsForeignKeyViolation(err):
		ae = apperror.BadRequest(apperror.CodeBadRequest, "Referenced resource does not exist").Wrap(err)
	default:
		ae = apperror.Internal(err)
		if !rd.Production {
			ae.Message = err.Error()
		}
	}
	if ae.Status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	WriteError(w, ae)
}

// WriteError writes ae without logging.
func WriteError(w http.ResponseWriter, ae *apperror.Error) {
	body := make(map[string]any, 3+len(ae.Fields))
	for k, v := range ae.Fields {
		body[k] = v
	}
	body["error"] = ae.Message
	body["code"] = ae.Code
	if ae.Details != nil {
		body["details"] = ae.Details
	}
	JSON(w, ae.Status, body)
}

// NotFound is the router's fallback handler.
func NotFound(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusNotFound, map[string]string{
		"error": "Not found",
		"code":  apperror.CodeNotFound,
		"path":  r.URL.Path,
	})
}

// MethodNotAllowed is the router's 405 handler.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "Method not allowed",
		"code":  "METHOD_NOT_ALLOWED",
		"path":  r.URL.Path,
	})
}

// Decode reads a JSON body into dst and validates it. An empty body decodes as {}.
func Decode(r *http.Request, v *validation.Validator, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperror.BadRequest(apperror.CodeValidation, "Invalid JSON body").Wrap(err)
	}
	if v == nil {
		return nil
	}
	return v.Struct(dst)
}

// Nullable distinguishes an absent JSON member (Set is false) from an explicit null
// (Set is true, Value is nil) in PATCH payloads.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON is only called for members present in the payload.
func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}
