package postgresql

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/geopoint/geopoint-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

//go:embed schema.sql
var schema string

// Migrate creates the tables that do not exist yet. It is safe to run on every start.
func Migrate(ctx context.Context, db *database.DB) error {
	return WithTransaction(ctx, db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, schema); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
		return nil
	})
}
