// Package dbtest provides an in-memory SQLite store with the service schema for tests.
package dbtest

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-companion/internal/models"
)

// NewSQLite returns a bun DB over a private in-memory database. The pool is pinned
// to one connection because every new SQLite :memory: connection is a new database.
// Event and check-in references are not enforced, so dangling rows can be seeded.
func NewSQLite(t *testing.T) *bun.DB {
	return newSQLite(t, false)
}

// NewSQLiteWithForeignKeys is NewSQLite with the event and check-in foreign keys
// of the Postgres schema enforced.
func NewSQLiteWithForeignKeys(t *testing.T) *bun.DB {
	return newSQLite(t, true)
}

func newSQLite(t *testing.T, foreignKeys bool) *bun.DB {
	t.Helper()
	ctx := context.Background()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { bunDB.Close() })

	if foreignKeys {
		if _, err := bunDB.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			t.Fatalf("Failed to enable foreign keys: %v", err)
		}
	}

	// Parents first; with foreign keys on, belongs-to relations become constraints.
	tables := []interface{}{
		(*models.User)(nil),
		(*models.Event)(nil),
		(*models.Bookmark)(nil),
		(*models.CheckIn)(nil),
		(*models.RaffleTicket)(nil),
		(*models.OTPCode)(nil),
	}
	for _, m := range tables {
		q := bunDB.NewCreateTable().Model(m)
		if foreignKeys {
			q = q.WithForeignKeys()
		}
		if _, err := q.Exec(ctx); err != nil {
			t.Fatalf("Failed to create table for %T: %v", m, err)
		}
	}

	return bunDB
}

func InsertUser(t *testing.T, db *bun.DB, id, name, phone string) models.User {
	t.Helper()
	u := models.User{ID: id, Name: name, PhoneNumber: phone, CreatedAt: time.Now().UTC()}
	if _, err := db.NewInsert().Model(&u).Exec(context.Background()); err != nil {
		t.Fatalf("insert user %s: %v", id, err)
	}
	return u
}

func InsertEvent(t *testing.T, db *bun.DB, id, title string, typ models.EventType, start time.Time) models.Event {
	t.Helper()
	e := models.Event{
		ID:          id,
		Title:       title,
		Description: title + " description",
		Location:    "Main Hall",
		StartTime:   start.UTC(),
		EndTime:     start.Add(time.Hour).UTC(),
		Type:        typ,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := db.NewInsert().Model(&e).Exec(context.Background()); err != nil {
		t.Fatalf("insert event %s: %v", id, err)
	}
	return e
}

func Count(t *testing.T, db *bun.DB, model interface{}, where string, args ...interface{}) int {
	t.Helper()
	q := db.NewSelect().Model(model)
	if where != "" {
		q = q.Where(where, args...)
	}
	n, err := q.Count(context.Background())
	if err != nil {
		t.Fatalf("count %T: %v", model, err)
	}
	return n
}
