package checkin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ms-companion/internal/config"
	"ms-companion/internal/database"
	"ms-companion/internal/logger"
	"ms-companion/internal/models"
	"ms-companion/internal/utils"
)

var ErrCheckInFailed = errors.New("check-in failed")

const (
	DuplicateMessage        = "Already checked in to this event"
	UnknownReferenceMessage = "Unknown participant or event"
)

type CheckInDBLayer interface {
	InsertCheckIn(ctx context.Context, c *models.CheckIn) (bool, error)
	InsertRaffleTicket(ctx context.Context, t *models.RaffleTicket) error
}

type Publisher interface {
	PublishJSON(ctx context.Context, topic, key string, payload interface{}) error
}

// Result is the outcome shown to staff. A duplicate is a normal negative result.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type CheckInService struct {
	DB        CheckInDBLayer
	Publisher Publisher
	Topics    config.TopicConfig
	Logger    *logger.Logger
	now       func() time.Time
}

// NewCheckInService builds the recorder. publisher may be nil when Kafka is disabled.
func NewCheckInService(db CheckInDBLayer, publisher Publisher, topics config.TopicConfig, log *logger.Logger) *CheckInService {
	return &CheckInService{DB: db, Publisher: publisher, Topics: topics, Logger: log, now: time.Now}
}

// RecordCheckIn checks userID in to eventID and issues one raffle ticket. A
// failed ticket insert is logged and the check-in still counts; the backfill
// job issues the missing ticket later.
func (s *CheckInService) RecordCheckIn(ctx context.Context, userID, eventID string) (Result, error) {
	userID, eventID = strings.TrimSpace(userID), strings.TrimSpace(eventID)
	if userID == "" || eventID == "" {
		return Result{}, utils.NewUserError(utils.ErrInvalidInput, "User and event are required", nil)
	}

	now := s.now().UTC()
	c := models.CheckIn{
		ID:        uuid.NewString(),
		UserID:    userID,
		EventID:   eventID,
		Timestamp: now,
		CreatedAt: now,
	}

	inserted, err := s.DB.InsertCheckIn(ctx, &c)
	if errors.Is(err, database.ErrMissingReference) {
		s.Logger.LogCheckIn("UNKNOWN", userID, eventID, "no such user or event")
		return Result{}, utils.NewUserError(utils.ErrInvalidInput, UnknownReferenceMessage, err)
	}
	if err != nil {
		s.Logger.Error("CHECKIN", fmt.Sprintf("Check-in insert for user=%s event=%s failed: %v", userID, eventID, err))
		return Result{}, utils.NewUserError(ErrCheckInFailed, "Failed to record check-in", err)
	}
	if !inserted {
		s.Logger.LogCheckIn("DUPLICATE", userID, eventID, "already checked in")
		return Result{Success: false, Message: DuplicateMessage}, nil
	}

	ticket := models.RaffleTicket{
		ID:        uuid.NewString(),
		UserID:    userID,
		EventID:   eventID,
		CheckInID: c.ID,
		CreatedAt: now,
	}
	issued := true
	if err := s.DB.InsertRaffleTicket(ctx, &ticket); err != nil {
		issued = false
		s.Logger.Error("CHECKIN", fmt.Sprintf("TicketIssuanceFailed check_in=%s user=%s event=%s: %v", c.ID, userID, eventID, err))
	}

	s.logRecorded(c, issued)
	s.publish(ctx, c, ticket, issued)
	return Result{Success: true}, nil
}

func (s *CheckInService) logRecorded(c models.CheckIn, issued bool) {
	msg := "checked in, ticket issued"
	if !issued {
		msg = "checked in, ticket pending backfill"
	}
	s.Logger.LogCheckIn("RECORD", c.UserID, c.EventID, msg)
}

// publish notifies downstream consumers. Failures are logged only.
func (s *CheckInService) publish(ctx context.Context, c models.CheckIn, ticket models.RaffleTicket, issued bool) {
	if s.Publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	evt := models.CheckInRecordedEvent{
		CheckInID:    c.ID,
		UserID:       c.UserID,
		EventID:      c.EventID,
		TicketIssued: issued,
		Timestamp:    c.Timestamp,
	}
	if err := s.Publisher.PublishJSON(ctx, s.Topics.CheckInRecorded, c.UserID, evt); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("Publishing check-in %s failed: %v", c.ID, err))
	}

	if !issued {
		return
	}
	ticketEvt := models.TicketIssuedEvent{
		TicketID:  ticket.ID,
		CheckInID: c.ID,
		UserID:    c.UserID,
		EventID:   c.EventID,
		IssuedAt:  ticket.CreatedAt,
	}
	if err := s.Publisher.PublishJSON(ctx, s.Topics.TicketIssued, c.UserID, ticketEvt); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("Publishing ticket %s failed: %v", ticket.ID, err))
	}
}
