package response

import "net/http"

// Response is the envelope every API endpoint returns. Status mirrors the
// HTTP outcome so clients can branch without inspecting the code.
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Success wraps data in a success envelope with the given status code.
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Accepted is the envelope for the upload endpoint: the invoice was taken in
// but processing continues in the background.
func Accepted(data interface{}) Response {
	return Success(http.StatusAccepted, data)
}

// Error wraps a message in an error envelope with the given status code.
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}
