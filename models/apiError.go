package models

type ApiError struct {
	Code    uint16 `json:"code"`
	Message string `json:"message"`
}

func NewApiError(code uint16, message string) ApiError {
	return ApiError{
		Code:    code,
		Message: message,
	}
}
