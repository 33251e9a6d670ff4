package utils

import "net/http"

// AppError is an error with an HTTP status code attached. Handlers unwrap it
// to build the response; anything else maps to a 500.
type AppError struct {
	StatusCode int
	Message    string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewBadRequestError(message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{StatusCode: http.StatusNotFound, Message: message}
}

func NewPayloadTooLargeError(message string) *AppError {
	return &AppError{StatusCode: http.StatusRequestEntityTooLarge, Message: message}
}

func NewUnsupportedMediaError(message string) *AppError {
	return &AppError{StatusCode: http.StatusUnsupportedMediaType, Message: message}
}

func NewUnprocessableError(message string) *AppError {
	return &AppError{StatusCode: http.StatusUnprocessableEntity, Message: message}
}

func NewInternalError(message string) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Message: message}
}
