package common

import (
	"errors"
	"fmt"
)

// APIError is the one error shape the HTTP surface speaks. Status drives
// the response code and stays out of the body; Fields carries structured
// detail such as validation failures or allowed queue names.
type APIError struct {
	Status  int            `json:"-"`
	Message string         `json:"error"`
	Fields  map[string]any `json:"fields,omitempty"`
}

func (e APIError) Error() string {
	return e.Message
}

// Errf builds an APIError with a formatted message.
func Errf(status int, format string, args ...any) APIError {
	return APIError{Status: status, Message: fmt.Sprintf(format, args...)}
}

// NewAPIError builds an APIError carrying structured field detail.
func NewAPIError(status int, message string, fields map[string]any) APIError {
	return APIError{
		Status:  status,
		Message: message,
		Fields:  fields,
	}
}

// StatusOf extracts the HTTP status from an error chain, defaulting to
// 500 for anything that is not an APIError.
func StatusOf(err error) int {
	var apiErr APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 500
}
