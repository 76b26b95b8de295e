package response

import (
	"encoding/json"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/gamexhub/gamex-panel/internal/validation"
)

type messageBody struct {
	Message string `json:"message"`
}

type errorsBody struct {
	Errors []validation.FieldError `json:"errors"`
}

// JSON writes data as-is. Every writer echoes the request id so clients can
// correlate a failure with server logs.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	if id := chimiddleware.GetReqID(r.Context()); id != "" {
		w.Header().Set("X-Request-Id", id)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func Message(w http.ResponseWriter, r *http.Request, status int, message string) {
	JSON(w, r, status, messageBody{Message: message})
}

func Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	Message(w, r, status, message)
}

func ValidationErrors(w http.ResponseWriter, r *http.Request, errs validation.Errors) {
	if errs == nil {
		errs = validation.Errors{}
	}
	JSON(w, r, http.StatusBadRequest, errorsBody{Errors: errs})
}

func InternalError(w http.ResponseWriter, r *http.Request) {
	Error(w, r, http.StatusInternalServerError, "internal server error")
}
