package inspect

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/oxjest/mockgraph/runtime/mock"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Path    string `json:"path,omitempty"`
}

// renderJSON encodes body before writing the status, so an unencodable body
// becomes a 500 instead of an empty 2xx.
func renderJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(ErrorResponse{Error: "encoding_failed", Message: err.Error()})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func renderError(w http.ResponseWriter, status int, err error, kind string) {
	resp := ErrorResponse{Error: kind, Message: err.Error()}
	var engineErr *mock.Error
	if errors.As(err, &engineErr) {
		resp.Code = engineErr.Code
		resp.Path = engineErr.Path
	}
	renderJSON(w, status, resp)
}
