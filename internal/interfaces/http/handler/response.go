package handler

import "github.com/erp/retailcore/internal/interfaces/http/dto"

// APIResponse is the typed shape of a success envelope, used by clients and tests
type APIResponse[T any] struct {
	Success bool      `json:"success"`
	Data    T         `json:"data,omitempty"`
	Meta    *dto.Meta `json:"meta,omitempty"`
}

// ErrorResponse is the shape of an error envelope
type ErrorResponse struct {
	Success bool           `json:"success"`
	Error   *dto.ErrorInfo `json:"error"`
}
