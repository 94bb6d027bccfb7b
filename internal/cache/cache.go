// Package cache provee una abstracción chica de cache con dos backends:
//
//   - memory (in-process, para desarrollo/testing)
//   - redis (distribuido, para producción)
//
// El bridge la usa para cachear summaries públicos de companies; se invalida
// en refresh y en webhooks de company.
package cache

import "time"

// Cache define las operaciones mínimas que consumen los services.
type Cache interface {
	// Get retorna el valor y true si la key existe y no expiró.
	Get(key string) ([]byte, bool)

	// Set guarda un valor con TTL. TTL 0 usa el default del backend.
	Set(key string, value []byte, ttl time.Duration)

	// Delete elimina una key (no-op si no existe).
	Delete(key string)
}
