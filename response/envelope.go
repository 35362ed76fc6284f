// Package response writes the uniform JSON envelope every API handler answers with.
package response

import (
	"encoding/json"
	"net/http"
	"time"
)

// DefaultErrorMessage is sent when Fail is called without a message
const DefaultErrorMessage = "Unknown error"

// Envelope is the wire shape of every API response. Exactly one of Data and Error is non-null.
type Envelope struct {
	StatusCode int     `json:"statusCode"`
	Timestamp  int64   `json:"timestamp"`
	Data       any     `json:"data"`
	Error      *string `json:"error"`
}

var now = time.Now

// Success writes a 200 envelope carrying data with its keys converted to camelCase.
// A nil data is sent as an empty object.
func Success(w http.ResponseWriter, data any) {
	mustWriter(w)

	if data == nil {
		data = map[string]any{}
	}
	converted, err := ConvertKeys(data)
	if err != nil {
		Fail(w, http.StatusInternalServerError, "")
		return
	}

	write(w, Envelope{
		StatusCode: http.StatusOK,
		Timestamp:  now().UnixMilli(),
		Data:       converted,
	})
}

// Fail writes an error envelope. A zero code means 500 and an empty message
// means DefaultErrorMessage. Codes outside 400-599 are treated as 500 so an
// error envelope never carries a success status.
func Fail(w http.ResponseWriter, code int, message string) {
	mustWriter(w)

	if code < 400 || code > 599 {
		code = http.StatusInternalServerError
	}
	if message == "" {
		message = DefaultErrorMessage
	}

	write(w, Envelope{
		StatusCode: code,
		Timestamp:  now().UnixMilli(),
		Error:      &message,
	})
}

func write(w http.ResponseWriter, env Envelope) {
	body, err := json.Marshal(env)
	if err != nil {
		// Data was already normalized through encoding/json, so only a
		// programming error can get here.
		panic("response: failed to encode envelope: " + err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)
	_, _ = w.Write(body)
}

// mustWriter guards against handler bugs that would otherwise drop the response
func mustWriter(w http.ResponseWriter) {
	if w == nil {
		panic("response: a non-nil http.ResponseWriter is required")
	}
}
