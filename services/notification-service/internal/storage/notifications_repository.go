package storage

import (
	"context"
	"encoding/json"

	"github.com/md-rashed-zaman/teambook/libs/db"
)

const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

type Notification struct {
	BookingID string
	Channel   string
	Recipient string
	Payload   map[string]any
	Status    string
	Error     string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	if n.Payload == nil {
		n.Payload = map[string]any{}
	}
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO notifications (booking_id, channel, recipient, payload, status, error)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, n.BookingID, n.Channel, n.Recipient, payload, n.Status, n.Error)
	return err
}
