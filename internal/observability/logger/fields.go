package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos HTTP estándar.

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path crea un campo para el path del request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration crea un campo para la duración del request.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// ClientIP crea un campo para la IP del cliente.
func ClientIP(v string) zap.Field {
	return zap.String("client_ip", v)
}

// Campos de negocio.

// CompanyID crea un campo para el ID de la company (merchant de Genuka).
func CompanyID(v string) zap.Field {
	return zap.String("company_id", v)
}

// Handle crea un campo para el handle (slug) de la company.
func Handle(v string) zap.Field {
	return zap.String("handle", v)
}

// EventType crea un campo para el tipo de evento de webhook.
func EventType(v string) zap.Field {
	return zap.String("event_type", v)
}

// Campos de trazabilidad interna.

// Op identifica la operación (ej: "OAuthService.HandleCallback").
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Layer identifica la capa: "controller", "service", "store", "client".
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Component identifica el componente interno (ej: "session", "genuka").
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Err crea un campo de error estándar.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Any crea un campo genérico.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}
