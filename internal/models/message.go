package models

import "time"

// Message is a direct message between two users. At least one of Text and
// ImageURL is set. Messages are immutable once created.
type Message struct {
	ID         int       `db:"id" json:"id"`
	SenderID   int       `db:"sender_id" json:"sender_id"`
	ReceiverID int       `db:"receiver_id" json:"receiver_id"`
	Text       string    `db:"text" json:"text,omitempty"`
	ImageURL   string    `db:"image_url" json:"image,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
