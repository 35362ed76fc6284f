package handlers

import (
	"net/http"

	"github.com/ebogdum/levelgate/response"
)

// V1Health answers liveness probes
func V1Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, map[string]string{"status": "ok"})
	}
}

// V1NotFound renders unknown routes in the envelope
func V1NotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, http.StatusNotFound, "Endpoint not found")
	}
}

// V1MethodNotAllowed renders unsupported methods in the envelope
func V1MethodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
