// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"themehub/internal/database"
	"themehub/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "themehub")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "themehub")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// newCreator inserts a throwaway creator and registers its cleanup.
// Item rows cascade with the creator.
func newCreator(t *testing.T, db *sql.DB) string {
	t.Helper()
	id := fmt.Sprintf("9%017d", rand.Int63n(1e17))
	_, err := db.Exec(`
		INSERT INTO creators (id, username) VALUES ($1, $2)
	`, id, "tester-"+id)
	if err != nil {
		t.Fatalf("insert creator: %v", err)
	}
	t.Cleanup(func() {
		db.Exec("DELETE FROM creators WHERE id = $1", id)
	})
	return id
}

// newLayout inserts a throwaway layout owned by creatorID.
func newLayout(t *testing.T, db *sql.DB, creatorID string) string {
	t.Helper()
	var id string
	err := db.QueryRow(`
		INSERT INTO layouts (creator_id, name, target, json)
		VALUES ($1, 'Test Layout', 'ResidentMenu', '{"Pieces":[]}')
		RETURNING id
	`, creatorID).Scan(&id)
	if err != nil {
		t.Fatalf("insert layout: %v", err)
	}
	return id
}

// newTheme inserts a minimal theme in its own transaction and returns it.
func newTheme(t *testing.T, db *sql.DB, creatorID string) *models.Theme {
	t.Helper()
	theme := &models.Theme{
		CreatorID: creatorID,
		Name:      "Test Theme",
		Target:    models.TargetResidentMenu,
	}
	inTx(t, db, func(tx *sql.Tx) error {
		_, err := NewThemeStore(db).InsertTx(context.Background(), tx, theme)
		return err
	})
	return theme
}

// inTx runs fn inside a committed transaction, failing the test on error.
func inTx(t *testing.T, db *sql.DB, fn func(tx *sql.Tx) error) {
	t.Helper()
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		t.Fatalf("tx: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
}
