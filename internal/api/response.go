// Package api holds the JSON envelope every hrassist endpoint answers with:
// {"data": ...} on success, {"error": ..., "code": ...} on failure.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/cloo-solutions/hrassist/internal/domain"
)

const internalErrorMessage = "internal server error"

type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse carries a message fit to show an employee. Code is the
// domain error code when there is one.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

var statusByCode = map[string]int{
	domain.ErrCodeValidation:           http.StatusBadRequest,
	domain.ErrCodeNotFound:             http.StatusNotFound,
	domain.ErrCodeUnauthorized:         http.StatusUnauthorized,
	domain.ErrCodeDataSource:           http.StatusServiceUnavailable,
	domain.ErrCodeEmbeddingUnavailable: http.StatusServiceUnavailable,
	domain.ErrCodePersistence:          http.StatusServiceUnavailable,
}

// JSON writes data with status. A nil data writes headers only.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("api: failed to encode response: %v", err)
	}
}

func Success(w http.ResponseWriter, status int, data interface{}) {
	JSON(w, status, SuccessResponse{Data: data})
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// DomainErrorToHTTP maps an error's domain code to a status. Anything that is
// not a DomainError, or carries an unknown code, is a 500.
func DomainErrorToHTTP(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var de *domain.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError
	}
	if status, ok := statusByCode[de.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// HandleError writes err as an ErrorResponse. Only the domain message is
// shown; causes and non-domain errors are logged and replaced with a generic
// message so store paths or credentials never reach a client.
func HandleError(w http.ResponseWriter, err error) {
	status := DomainErrorToHTTP(err)

	var de *domain.DomainError
	if !errors.As(err, &de) {
		log.Printf("api: unhandled error: %v", err)
		Error(w, status, internalErrorMessage)
		return
	}
	if de.Err != nil || status >= http.StatusInternalServerError {
		log.Printf("api: %v", err)
	}
	JSON(w, status, ErrorResponse{Error: de.Message, Code: de.Code})
}
