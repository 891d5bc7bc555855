package errors

import (
	"encoding/json"
	"net/http"
)

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ThrottleError carries the run state alongside the rejection so clients can
// render "waiting for a reply" instead of a retry timer.
type ThrottleError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RunLength int    `json:"run_length"`
	RunCap    int    `json:"run_cap"`
}

func Write(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
