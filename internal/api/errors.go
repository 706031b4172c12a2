package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is a failed API call. Code and ErrorCode are only set when the
// server answered with an ErrorResponse body.
type APIError struct {
	Status    int
	Code      string
	ErrorCode int
	Message   string
}

func (e *APIError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Code != "" && e.Message != "":
		return e.Code + ": " + e.Message
	case e.Message != "":
		return e.Message
	default:
		return fmt.Sprintf("api error: %d %s", e.Status, http.StatusText(e.Status))
	}
}

// FromServer reports whether the error body came from a mercari server rather
// than a proxy or some other service listening on the API address.
func (e *APIError) FromServer() bool {
	return e != nil && e.Code != ""
}

// NotFound reports a missing item or image.
func (e *APIError) NotFound() bool {
	return e != nil && e.Status == http.StatusNotFound
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		apiErr.Message = fmt.Sprintf("api error: %s", resp.Status)
		return apiErr
	}
	apiErr.Code = body.Code
	apiErr.ErrorCode = body.ErrorCode
	apiErr.Message = body.Error
	return apiErr
}
