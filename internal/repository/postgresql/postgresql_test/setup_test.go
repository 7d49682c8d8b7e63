package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/domain/user"
	"github.com/geopoint/geopoint-backend-go/internal/domain/workspace"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/database"
	"github.com/geopoint/geopoint-backend-go/internal/repository/postgresql"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TEST_DATABASE_URL, applies the schema and empties every table.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{MaxConns: 4, MinConns: 1})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, postgresql.Migrate(ctx, db))
	truncateAll(t, db)
	return db
}

func truncateAll(t *testing.T, db *database.DB) {
	t.Helper()

	tables := []string{
		"notifications",
		"employee_requests",
		"time_records",
		"locations",
		"users",
		"work_schedules",
		"work_shifts",
		"workspaces",
	}
	for _, table := range tables {
		_, err := db.Exec(context.Background(), fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "truncate %s", table)
	}
}

type fixture struct {
	workspace workspace.Workspace
	admin     user.User
	employee  user.User
}

func seed(t *testing.T, db *database.DB) fixture {
	t.Helper()
	ctx := context.Background()

	ws, err := postgresql.NewWorkspaceRepository(db).Create(ctx, workspace.Workspace{Name: "Padaria Central"})
	require.NoError(t, err)

	users := postgresql.NewUserRepository(db)
	admin, err := users.Create(ctx, user.User{
		WorkspaceID: ws.ID, Email: fmt.Sprintf("admin-%d@example.com", time.Now().UnixNano()),
		Name: "Ana", PasswordHash: "x", Role: user.RoleAdmin,
	})
	require.NoError(t, err)

	badge := "0042"
	employee, err := users.Create(ctx, user.User{
		WorkspaceID: ws.ID, Email: fmt.Sprintf("emp-%d@example.com", time.Now().UnixNano()),
		Name: "Bruno", PasswordHash: "x", Role: user.RoleEmployee, EmployeeID: &badge,
	})
	require.NoError(t, err)

	return fixture{workspace: ws, admin: admin, employee: employee}
}
