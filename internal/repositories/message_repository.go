package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"

	"course-chat-service/internal/models"
)

// ErrEmptyMessage is the store-level constraint: a message needs text or an
// image reference.
var ErrEmptyMessage = errors.New("message requires text or image")

// MessageRepository is the durable, append-only message store. No update or
// delete is exposed; messages are immutable once created.
type MessageRepository interface {
	Append(ctx context.Context, senderID, receiverID int, text, imageURL string) (models.Message, error)
	// ListBetween returns the full history between two users ascending by
	// creation time. Unpaginated; known scaling gap.
	ListBetween(ctx context.Context, userA, userB int) ([]models.Message, error)
	// ExistsFrom reports whether senderID has ever messaged receiverID.
	ExistsFrom(ctx context.Context, senderID, receiverID int) (bool, error)
	// PartnerIDs returns every user the given user has exchanged at least
	// one message with.
	PartnerIDs(ctx context.Context, userID int) ([]int, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Append stores a message and returns it with its assigned id and timestamp.
func (r *MessageRepo) Append(ctx context.Context, senderID, receiverID int, text, imageURL string) (models.Message, error) {
	if text == "" && imageURL == "" {
		return models.Message{}, ErrEmptyMessage
	}
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (sender_id, receiver_id, text, image_url) VALUES ($1, $2, $3, $4)
         RETURNING id, sender_id, receiver_id, text, image_url, created_at`,
		senderID, receiverID, text, imageURL).
		Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Text, &msg.ImageURL, &msg.CreatedAt)
	return msg, err
}

// ListBetween returns the pair's history ordered by creation time. The id
// tiebreaker keeps the order stable when timestamps collide.
func (r *MessageRepo) ListBetween(ctx context.Context, userA, userB int) ([]models.Message, error) {
	msgs := []models.Message{}
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT id, sender_id, receiver_id, text, image_url, created_at FROM messages
         WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
         ORDER BY created_at ASC, id ASC`, userA, userB)
	return msgs, err
}

func (r *MessageRepo) ExistsFrom(ctx context.Context, senderID, receiverID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM messages WHERE sender_id=$1 AND receiver_id=$2)`,
		senderID, receiverID)
	return exists, err
}

func (r *MessageRepo) PartnerIDs(ctx context.Context, userID int) ([]int, error) {
	ids := []int{}
	err := r.db.SelectContext(ctx, &ids,
		`SELECT DISTINCT CASE WHEN sender_id=$1 THEN receiver_id ELSE sender_id END
         FROM messages WHERE sender_id=$1 OR receiver_id=$1`, userID)
	return ids, err
}
