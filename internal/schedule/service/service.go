package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"ms-companion/internal/database"
	"ms-companion/internal/logger"
	"ms-companion/internal/models"
	"ms-companion/internal/utils"
)

type ScheduleDBLayer interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	BookmarkedEventIDs(ctx context.Context, userID string) ([]string, error)
	ListBookmarks(ctx context.Context, userID string) ([]models.Bookmark, error)
	DeleteBookmark(ctx context.Context, userID, eventID string) (bool, error)
	InsertBookmark(ctx context.Context, userID, eventID string) error
}

type ScheduleService struct {
	DB     ScheduleDBLayer
	Logger *logger.Logger
}

func NewScheduleService(db ScheduleDBLayer, log *logger.Logger) *ScheduleService {
	return &ScheduleService{DB: db, Logger: log}
}

// ListEvents returns every event by start time. Bookmark flags are only set
// for a signed-in caller.
func (s *ScheduleService) ListEvents(ctx context.Context, session *models.Session) ([]models.EventView, error) {
	events, err := s.DB.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	bookmarked := map[string]bool{}
	if session != nil {
		ids, err := s.DB.BookmarkedEventIDs(ctx, session.User.ID)
		if err != nil {
			return nil, fmt.Errorf("list bookmarks: %w", err)
		}
		for _, id := range ids {
			bookmarked[id] = true
		}
	}

	views := make([]models.EventView, 0, len(events))
	for _, e := range events {
		if !e.Type.Valid() {
			s.Logger.Warn("SCHEDULE", fmt.Sprintf("Event %s has unknown type %q", e.ID, e.Type))
		}
		views = append(views, e.View(bookmarked[e.ID]))
	}
	return views, nil
}

// ListBookmarkedEvents returns the caller's bookmarked events by start time.
// Bookmarks whose event is gone are skipped.
func (s *ScheduleService) ListBookmarkedEvents(ctx context.Context, session *models.Session) ([]models.EventView, error) {
	if session == nil {
		return []models.EventView{}, nil
	}

	bookmarks, err := s.DB.ListBookmarks(ctx, session.User.ID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}

	views := make([]models.EventView, 0, len(bookmarks))
	for _, b := range bookmarks {
		if b.Event == nil || b.Event.ID == "" {
			s.Logger.Warn("SCHEDULE", fmt.Sprintf("Bookmark %s references missing event %s", b.ID, b.EventID))
			continue
		}
		views = append(views, b.Event.View(true))
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].StartTime.Before(views[j].StartTime)
	})
	return views, nil
}

// ToggleBookmark flips membership of (userID, eventID) and returns the new state.
func (s *ScheduleService) ToggleBookmark(ctx context.Context, userID, eventID string) (bool, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(eventID) == "" {
		return false, utils.NewUserError(utils.ErrInvalidInput, "User and event are required", nil)
	}

	deleted, err := s.DB.DeleteBookmark(ctx, userID, eventID)
	if err != nil {
		return false, fmt.Errorf("delete bookmark: %w", err)
	}
	if deleted {
		return false, nil
	}

	err = s.DB.InsertBookmark(ctx, userID, eventID)
	if errors.Is(err, database.ErrMissingReference) {
		return false, utils.NewUserError(utils.ErrInvalidInput, "Unknown event", err)
	}
	if err != nil {
		return false, fmt.Errorf("insert bookmark: %w", err)
	}
	return true, nil
}
