package pg

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	"github.com/dropDatabas3/genuka-bridge/internal/observability/logger"
	"github.com/dropDatabas3/genuka-bridge/migrations"
)

// RunMigrations aplica las migraciones embebidas en orden lexicográfico.
// Los statements son idempotentes (IF NOT EXISTS), así que correrlas en cada
// arranque es seguro.
func (s *Store) RunMigrations(ctx context.Context) error {
	entries, err := fs.ReadDir(migrations.PostgresFS, migrations.PostgresDir)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	log := logger.Named("store.pg")
	for _, name := range names {
		sql, err := fs.ReadFile(migrations.PostgresFS, migrations.PostgresDir+"/"+name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		log.Info("migration applied", logger.Any("file", name))
	}
	return nil
}
