package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entities named in change messages.
const (
	EntityTransactions = "transactions"
	EntityBudgets      = "budgets"
	EntityGoals        = "savingsGoals"
	EntityInvestments  = "investments"
	EntityAll          = "all"
)

// Operations named in change messages.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpImport = "import"
	OpClear  = "clear"
	OpResync = "resync"
)

// LedgerChangedMessage announces that the persisted ledger reached Version.
// It carries no entity data; consumers read the current state from storage.
type LedgerChangedMessage struct {
	ID        string    `json:"id"`
	Entity    string    `json:"entity"`
	Op        string    `json:"op"`
	Version   uint64    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage stamps a message with a fresh id and the current time.
func NewLedgerChangedMessage(entity, op string, version uint64) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		ID:        uuid.NewString(),
		Entity:    entity,
		Op:        op,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes a message body.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
