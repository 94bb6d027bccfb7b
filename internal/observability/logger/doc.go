// Package logger provee un wrapper fino sobre zap con:
//
//   - Singleton global inicializado una vez en main (Init/L/S).
//   - Propagación por contexto (ToContext/From) para loggers request-scoped.
//   - Helpers de campos estándar (Op, Layer, CompanyID, ...) para que todos
//     los logs del servicio usen las mismas keys.
//
// Uso típico:
//
//	logger.Init(logger.Config{Env: "prod", Level: "info", ServiceName: "genuka-bridge"})
//	defer logger.Sync()
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("HandleCallback"))
//	log.Info("callback processed", logger.CompanyID(id))
package logger
