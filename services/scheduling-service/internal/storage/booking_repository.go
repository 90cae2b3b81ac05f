package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/teambook/libs/db"
	"github.com/md-rashed-zaman/teambook/services/scheduling-service/internal/model"
)

type BookingRepository struct {
	pool *db.Pool
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

// CreateConfirmed inserts b with status confirmed and calls onCreated with
// the stored row inside the same transaction, so follow-up writes such as
// outbox events commit or roll back together with the booking.
func (r *BookingRepository) CreateConfirmed(ctx context.Context, b model.Booking, onCreated func(context.Context, pgx.Tx, model.Booking) error) (model.Booking, error) {
	b.Status = model.BookingConfirmed
	err := r.pool.InTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO bookings (team_member_id, guest_name, guest_email, guest_phone, meeting_purpose,
				meeting_date, meeting_time, timezone, start_time, end_time, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id::text, created_at, updated_at
		`, b.TeamMemberID, b.GuestName, b.GuestEmail, b.GuestPhone, b.MeetingPurpose,
			b.MeetingDate, b.MeetingTime, b.Timezone, b.StartTime, b.EndTime, b.Status,
		).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return err
		}
		if onCreated != nil {
			return onCreated(ctx, tx, b)
		}
		return nil
	})
	if err != nil {
		return model.Booking{}, err
	}
	return b, nil
}

// IsForeignKeyViolation reports a booking for a member that no longer exists.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
