package api

import "github.com/kehngithub111/litalkon/analysis"

// SuccessResponse is the envelope for successful analysis responses
type SuccessResponse struct {
	Success bool             `json:"success"`
	Data    *analysis.Result `json:"data"`
}

// FailureResponse is the envelope for every error response
type FailureResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// ErrorBody carries the machine-readable code and a human message.
// Internal detail (stack traces, paths, ffmpeg stderr) never leaves the
// service through this type.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes surfaced to clients
const (
	CodeInvalidParameters = "INVALID_PARAMETERS"
	CodeResourceNotFound  = "RESOURCE_NOT_FOUND"
	CodeServerError       = "SERVER_ERROR"
)

func failure(code, message string) FailureResponse {
	return FailureResponse{
		Success: false,
		Error:   ErrorBody{Code: code, Message: message},
	}
}
