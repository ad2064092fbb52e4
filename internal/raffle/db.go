package raffle

import (
	"context"

	"github.com/uptrace/bun"

	"ms-companion/internal/models"
)

// DB handles raffle database operations
type DB struct {
	bun *bun.DB
}

// NewDB creates a new raffle DB handler
func NewDB(db *bun.DB) *DB {
	return &DB{bun: db}
}

// GetTicketsByUser returns the user's tickets with event and check-in joined,
// newest first. Relations are empty where the referenced row is gone.
func (db *DB) GetTicketsByUser(ctx context.Context, userID string) ([]models.RaffleTicket, error) {
	var tickets []models.RaffleTicket
	err := db.bun.NewSelect().
		Model(&tickets).
		Relation("Event").
		Relation("CheckIn").
		Where("raffle_ticket.user_id = ?", userID).
		Order("raffle_ticket.created_at DESC").
		Scan(ctx)

	return tickets, err
}

// GetCheckInsByUser returns the user's check-ins with events joined, newest first.
func (db *DB) GetCheckInsByUser(ctx context.Context, userID string) ([]models.CheckIn, error) {
	var checkIns []models.CheckIn
	err := db.bun.NewSelect().
		Model(&checkIns).
		Relation("Event").
		Where("check_in.user_id = ?", userID).
		Order("check_in.timestamp DESC").
		Scan(ctx)

	return checkIns, err
}

// GetTicketCountsByEvent counts tickets per event title
func (db *DB) GetTicketCountsByEvent(ctx context.Context) ([]models.EventTicketCount, error) {
	var counts []models.EventTicketCount
	err := db.bun.NewRaw(`
		SELECT
			e.title AS event_title,
			COUNT(*) AS count
		FROM
			raffle_tickets rt
		JOIN
			events e ON e.id = rt.event_id
		GROUP BY
			e.title
		ORDER BY
			count DESC, e.title ASC
	`).Scan(ctx, &counts)

	return counts, err
}

// GetTicketCountsByType counts tickets per event type
func (db *DB) GetTicketCountsByType(ctx context.Context) ([]models.TypeTicketCount, error) {
	var counts []models.TypeTicketCount
	err := db.bun.NewRaw(`
		SELECT
			e.type AS event_type,
			COUNT(*) AS count
		FROM
			raffle_tickets rt
		JOIN
			events e ON e.id = rt.event_id
		GROUP BY
			e.type
		ORDER BY
			count DESC, e.type ASC
	`).Scan(ctx, &counts)

	return counts, err
}

// GetTopUsers returns the users holding the most tickets
func (db *DB) GetTopUsers(ctx context.Context, limit int) ([]models.UserTicketCount, error) {
	var counts []models.UserTicketCount
	err := db.bun.NewRaw(`
		SELECT
			u.name AS user_name,
			COUNT(*) AS count
		FROM
			raffle_tickets rt
		JOIN
			users u ON u.id = rt.user_id
		GROUP BY
			u.id, u.name
		ORDER BY
			count DESC, u.name ASC
		LIMIT ?
	`, limit).Scan(ctx, &counts)

	return counts, err
}

// GetCheckInsWithoutTicket finds check-ins whose ticket insert failed
func (db *DB) GetCheckInsWithoutTicket(ctx context.Context) ([]models.CheckIn, error) {
	var checkIns []models.CheckIn
	err := db.bun.NewSelect().
		Model(&checkIns).
		Join("LEFT JOIN raffle_tickets AS rt ON rt.check_in_id = check_in.id").
		Where("rt.id IS NULL").
		Order("check_in.timestamp ASC").
		Scan(ctx)

	return checkIns, err
}

// InsertTicketIfMissing reports whether a ticket was written for t.CheckInID.
func (db *DB) InsertTicketIfMissing(ctx context.Context, t *models.RaffleTicket) (bool, error) {
	res, err := db.bun.NewInsert().
		Model(t).
		On("CONFLICT (check_in_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
