package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Change operations carried by SummaryChangedMessage.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// SummaryChangedMessage announces that a daily summary was written. It only
// carries the id; consumers reload what they need from the repository.
type SummaryChangedMessage struct {
	Op        string    `json:"op"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSummaryChangedMessage(op, id string) *SummaryChangedMessage {
	return &SummaryChangedMessage{
		Op:        op,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *SummaryChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SummaryChangedMessageFromJSON decodes a message and rejects unknown
// operations.
func SummaryChangedMessageFromJSON(data []byte) (*SummaryChangedMessage, error) {
	var msg SummaryChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Op {
	case ChangeCreated, ChangeUpdated, ChangeDeleted:
	default:
		return nil, fmt.Errorf("unknown change operation %q", msg.Op)
	}
	return &msg, nil
}
