package amqp

import (
	"encoding/json"
	"time"

	"spendlog/internal/core"

	"github.com/google/uuid"
)

// ChangeMessage announces one committed tracker mutation. Consumers
// reload state from the snapshot, so the message only names what changed.
type ChangeMessage struct {
	ID        string    `json:"id"`
	Operation string    `json:"operation"`
	Month     string    `json:"month,omitempty"`
	Name      string    `json:"name,omitempty"`
	Category  string    `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(change core.Change) *ChangeMessage {
	return &ChangeMessage{
		ID:        uuid.NewString(),
		Operation: change.Operation,
		Month:     change.Month,
		Name:      change.Name,
		Category:  change.Category,
		Timestamp: time.Now(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
