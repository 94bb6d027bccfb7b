package errors

import (
	"fmt"
	"net/http"
)

// AppError define la estructura estándar para errores de la aplicación.
// Los tres campos serializables forman el contrato de error con el frontend:
// {statusCode, statusMessage, message}.
type AppError struct {
	StatusCode    int    `json:"statusCode"`
	StatusMessage string `json:"statusMessage"`
	Message       string `json:"message"`
	Err           error  `json:"-"` // causa original, solo para logs
}

// Error implementa la interfaz error.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d %s] %s: %v", e.StatusCode, e.StatusMessage, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d %s] %s", e.StatusCode, e.StatusMessage, e.Message)
}

// Unwrap permite acceder al error original.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithMessage devuelve una COPIA con otro mensaje user-facing, para no mutar
// las variables globales base.
func (e *AppError) WithMessage(msg string) *AppError {
	n := *e
	n.Message = msg
	return &n
}

// WithCause devuelve una COPIA con la causa adjunta.
func (e *AppError) WithCause(err error) *AppError {
	n := *e
	n.Err = err
	return &n
}

// FromError convierte un error genérico en AppError. Si no lo es, devuelve un
// 500 genérico conservando la causa.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}

// Errores predefinidos. Los mensajes distinguen "try again" (transitorio) de
// "reinstall" (conexión muerta) porque el frontend muestra el texto tal cual.
var (
	ErrBadRequest = &AppError{
		StatusCode:    http.StatusBadRequest,
		StatusMessage: "Bad Request",
		Message:       "The request has invalid or missing parameters.",
	}

	ErrUnauthorized = &AppError{
		StatusCode:    http.StatusUnauthorized,
		StatusMessage: "Unauthorized",
		Message:       "Authentication required.",
	}

	ErrReinstallRequired = &AppError{
		StatusCode:    http.StatusUnauthorized,
		StatusMessage: "Unauthorized",
		Message:       "Invalid or expired refresh token. Please reinstall the app.",
	}

	ErrNotFound = &AppError{
		StatusCode:    http.StatusNotFound,
		StatusMessage: "Not Found",
		Message:       "The requested resource was not found.",
	}

	ErrMethodNotAllowed = &AppError{
		StatusCode:    http.StatusMethodNotAllowed,
		StatusMessage: "Method Not Allowed",
		Message:       "The HTTP method is not allowed for this endpoint.",
	}

	ErrInternalServerError = &AppError{
		StatusCode:    http.StatusInternalServerError,
		StatusMessage: "Internal Server Error",
		Message:       "Something went wrong. Please try again.",
	}
)
