// Package respond writes the JSON envelope shared by every endpoint:
// {"success": bool, "message": string, "data": any}.
package respond

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/facturaIA/invoice-ai-service/internal/apperr"
)

// MaxBodySize caps JSON request bodies
const MaxBodySize = 1 << 20

type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON writes v with the given status code
func JSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// OK writes a success envelope
func OK(w http.ResponseWriter, code int, message string, data interface{}) {
	JSON(w, code, Envelope{Success: true, Message: message, Data: data})
}

// Decode reads a JSON body of at most MaxBodySize bytes into v. On failure
// it writes 400 "Invalid request body" and returns false.
func Decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Fail(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// Fail writes {success:false, message} with an explicit status
func Fail(w http.ResponseWriter, code int, message string) {
	JSON(w, code, Envelope{Success: false, Message: message})
}

// Error translates err through apperr. Server-side failures are logged with
// their cause; the client only sees the safe message.
func Error(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	code := apperr.HTTPStatus(err)
	if code >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("kind", apperr.KindOf(err).String()),
			zap.Error(err),
		)
	}
	Fail(w, code, apperr.Message(err))
}
