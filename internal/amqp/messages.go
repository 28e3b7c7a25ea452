package amqp

import (
	"encoding/json"
	"time"

	"famfin/internal/core"
)

type EventKind string

const (
	TransactionCreated EventKind = "transaction.created"
	TransactionUpdated EventKind = "transaction.updated"
	TransactionDeleted EventKind = "transaction.deleted"
)

// LedgerEvent announces a committed change to a transaction. It carries a
// snapshot of the row so consumers never need to read the database.
type LedgerEvent struct {
	Kind          EventKind            `json:"kind"`
	TransactionID int64                `json:"transactionId"`
	AccountID     int64                `json:"accountId"`
	FamilyID      int64                `json:"familyId"`
	Date          core.Date            `json:"date"`
	Name          string               `json:"name"`
	Amount        core.Money           `json:"amount"`
	Type          core.TransactionType `json:"type"`
	Timestamp     time.Time            `json:"timestamp"`
}

// NewLedgerEvent builds an event for tx owned by familyID.
func NewLedgerEvent(kind EventKind, familyID int64, tx core.Transaction) *LedgerEvent {
	return &LedgerEvent{
		Kind:          kind,
		TransactionID: tx.ID,
		AccountID:     tx.AccountID,
		FamilyID:      familyID,
		Date:          tx.Date,
		Name:          tx.Name,
		Amount:        tx.Amount,
		Type:          tx.Type,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
