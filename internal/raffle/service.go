package raffle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-companion/internal/logger"
	"ms-companion/internal/models"
)

const topUsersLimit = 10

type RaffleDBLayer interface {
	GetTicketsByUser(ctx context.Context, userID string) ([]models.RaffleTicket, error)
	GetCheckInsByUser(ctx context.Context, userID string) ([]models.CheckIn, error)
	GetTicketCountsByEvent(ctx context.Context) ([]models.EventTicketCount, error)
	GetTicketCountsByType(ctx context.Context) ([]models.TypeTicketCount, error)
	GetTopUsers(ctx context.Context, limit int) ([]models.UserTicketCount, error)
	GetCheckInsWithoutTicket(ctx context.Context) ([]models.CheckIn, error)
	InsertTicketIfMissing(ctx context.Context, t *models.RaffleTicket) (bool, error)
}

// Service handles raffle read paths and ticket recovery
type Service struct {
	db     RaffleDBLayer
	logger *logger.Logger
}

// NewService creates a new raffle service
func NewService(db RaffleDBLayer, log *logger.Logger) *Service {
	return &Service{db: db, logger: log}
}

func missing(e *models.Event) bool {
	return e == nil || e.ID == ""
}

// ListTickets returns display-ready tickets for userID. Tickets whose event or
// check-in no longer resolves are skipped rather than failing the listing.
func (s *Service) ListTickets(ctx context.Context, userID string) ([]models.RaffleTicketView, error) {
	tickets, err := s.db.GetTicketsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list raffle tickets: %w", err)
	}

	views := make([]models.RaffleTicketView, 0, len(tickets))
	for _, t := range tickets {
		if missing(t.Event) || t.CheckIn == nil || t.CheckIn.ID == "" {
			s.logger.Warn("RAFFLE", fmt.Sprintf("Skipping ticket %s with dangling event or check-in", t.ID))
			continue
		}
		views = append(views, models.RaffleTicketView{
			ID:               t.ID,
			UserID:           t.UserID,
			EventID:          t.EventID,
			CheckInID:        t.CheckInID,
			CreatedAt:        t.CreatedAt,
			Event:            t.Event.View(false),
			CheckInTimestamp: t.CheckIn.Timestamp,
		})
	}
	return views, nil
}

// ListCheckIns returns userID's check-ins, newest first, skipping missing events.
func (s *Service) ListCheckIns(ctx context.Context, userID string) ([]models.CheckInView, error) {
	checkIns, err := s.db.GetCheckInsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}

	views := make([]models.CheckInView, 0, len(checkIns))
	for _, c := range checkIns {
		if missing(c.Event) {
			s.logger.Warn("RAFFLE", fmt.Sprintf("Skipping check-in %s for missing event %s", c.ID, c.EventID))
			continue
		}
		views = append(views, models.CheckInView{
			ID:        c.ID,
			UserID:    c.UserID,
			EventID:   c.EventID,
			Timestamp: c.Timestamp,
			Event:     c.Event.View(false),
		})
	}
	return views, nil
}

// Stats aggregates ticket counts by event, by event type and for the top users.
func (s *Service) Stats(ctx context.Context) (*models.RaffleStats, error) {
	byEvent, err := s.db.GetTicketCountsByEvent(ctx)
	if err != nil {
		return nil, fmt.Errorf("count tickets by event: %w", err)
	}
	byType, err := s.db.GetTicketCountsByType(ctx)
	if err != nil {
		return nil, fmt.Errorf("count tickets by type: %w", err)
	}
	topUsers, err := s.db.GetTopUsers(ctx, topUsersLimit)
	if err != nil {
		return nil, fmt.Errorf("count tickets by user: %w", err)
	}

	stats := &models.RaffleStats{
		ByEvent:  byEvent,
		ByType:   byType,
		TopUsers: topUsers,
	}
	if stats.ByEvent == nil {
		stats.ByEvent = []models.EventTicketCount{}
	}
	if stats.ByType == nil {
		stats.ByType = []models.TypeTicketCount{}
	}
	if stats.TopUsers == nil {
		stats.TopUsers = []models.UserTicketCount{}
	}
	return stats, nil
}

// BackfillTickets issues the missing ticket for every check-in that has none.
// Running it twice issues nothing the second time.
func (s *Service) BackfillTickets(ctx context.Context) (int, error) {
	checkIns, err := s.db.GetCheckInsWithoutTicket(ctx)
	if err != nil {
		return 0, fmt.Errorf("find check-ins without ticket: %w", err)
	}

	issued := 0
	for _, c := range checkIns {
		if err := ctx.Err(); err != nil {
			return issued, err
		}
		ticket := models.RaffleTicket{
			ID:        uuid.NewString(),
			UserID:    c.UserID,
			EventID:   c.EventID,
			CheckInID: c.ID,
			CreatedAt: time.Now().UTC(),
		}
		ok, err := s.db.InsertTicketIfMissing(ctx, &ticket)
		if err != nil {
			s.logger.Error("RAFFLE", fmt.Sprintf("Backfill for check-in %s failed: %v", c.ID, err))
			continue
		}
		if ok {
			issued++
			s.logger.LogCheckIn("BACKFILL", c.UserID, c.EventID, "ticket issued")
		}
	}

	s.logger.LogDatabase("BACKFILL", "raffle_tickets", fmt.Sprintf("issued %d of %d missing tickets", issued, len(checkIns)))
	return issued, nil
}
