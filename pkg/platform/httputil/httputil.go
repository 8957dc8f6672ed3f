// Package httputil holds the JSON response and request helpers shared by
// every handler.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "kycflow/pkg/domain-errors"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body written for every failed request.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a coded error to its status. Internal, contract and
// identity failures never expose their description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := ErrorResponse{Error: string(code)}
	if !hidden(code) {
		body.ErrorDescription = dErrors.MessageOf(err)
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}

func hidden(code dErrors.Code) bool {
	switch code {
	case dErrors.CodeInternal, dErrors.CodeBackendContract, dErrors.CodeIdentityMismatch, dErrors.CodeNotInitialized:
		return true
	}
	return false
}

// Preparable requests normalize themselves after decoding.
type Preparable interface {
	Prepare()
}

// DecodeAndPrepare decodes the JSON body into T and runs Prepare when T has
// one. On failure it writes a bad_request response and returns false.
func DecodeAndPrepare[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return nil, false
	}
	if p, ok := any(&req).(Preparable); ok {
		p.Prepare()
	}
	return &req, true
}
