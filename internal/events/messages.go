// Package events carries cross-device change notifications. A message
// only says "this user's remote document changed"; receivers do a full
// remote reload, no state travels in the message and nothing is merged.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Publisher announces a completed remote write. A nil publisher disables
// notifications entirely.
type Publisher interface {
	PublishStoreUpdated(ctx context.Context, userID string, updatedAt time.Time) error
}

// StoreUpdatedMessage notifies that a user's remote document was replaced.
type StoreUpdatedMessage struct {
	UserID    string    `json:"user_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewStoreUpdatedMessage(userID string, updatedAt time.Time) *StoreUpdatedMessage {
	return &StoreUpdatedMessage{UserID: userID, UpdatedAt: updatedAt}
}

// ToJSON converts the message to JSON bytes
func (m *StoreUpdatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// StoreUpdatedMessageFromJSON creates a message from JSON bytes
func StoreUpdatedMessageFromJSON(data []byte) (*StoreUpdatedMessage, error) {
	var msg StoreUpdatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
