package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"ms-companion/internal/database"
	"ms-companion/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := d.Bun.NewSelect().
		Model(&events).
		Order("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) BookmarkedEventIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := d.Bun.NewSelect().
		Model((*models.Bookmark)(nil)).
		Column("event_id").
		Where("user_id = ?", userID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListBookmarks returns the user's bookmarks with their events joined. Event is
// left empty where the referenced event no longer exists.
func (d *DB) ListBookmarks(ctx context.Context, userID string) ([]models.Bookmark, error) {
	var bookmarks []models.Bookmark
	err := d.Bun.NewSelect().
		Model(&bookmarks).
		Relation("Event").
		Where("bookmark.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return bookmarks, nil
}

// DeleteBookmark reports whether a row was removed.
func (d *DB) DeleteBookmark(ctx context.Context, userID, eventID string) (bool, error) {
	res, err := d.Bun.NewDelete().
		Model((*models.Bookmark)(nil)).
		Where("user_id = ?", userID).
		Where("event_id = ?", eventID).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertBookmark is a no-op when the pair is already bookmarked. An unknown
// event yields database.ErrMissingReference.
func (d *DB) InsertBookmark(ctx context.Context, userID, eventID string) error {
	b := models.Bookmark{
		ID:        uuid.NewString(),
		UserID:    userID,
		EventID:   eventID,
		CreatedAt: time.Now().UTC(),
	}
	_, err := d.Bun.NewInsert().
		Model(&b).
		On("CONFLICT (user_id, event_id) DO NOTHING").
		Exec(ctx)
	if database.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: %v", database.ErrMissingReference, err)
	}
	return err
}
