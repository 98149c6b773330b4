package amqp

import (
	"encoding/json"
	"time"
)

// EventType doubles as the routing key of a published event.
type EventType string

const (
	EventCardRegistered  EventType = "card.registered"
	EventDebtAdded       EventType = "debt.added"
	EventInstallmentPaid EventType = "installment.paid"
	EventInstallmentDue  EventType = "installment.due"
)

// LedgerEvent is a notification about a committed ledger change. Consumers
// read the authoritative state from the store; the event only points at it.
type LedgerEvent struct {
	Type         EventType `json:"type"`
	CardNumber   string    `json:"card_number,omitempty"`
	DebtID       int64     `json:"debt_id,omitempty"`
	Installment  int       `json:"installment,omitempty"`
	Installments int       `json:"installments,omitempty"`
	AmountCents  int64     `json:"amount_cents,omitempty"`
	Date         string    `json:"date,omitempty"`
	Wallet       string    `json:"wallet,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewLedgerEvent stamps an event of the given type with the current time.
func NewLedgerEvent(t EventType) LedgerEvent {
	return LedgerEvent{Type: t, Timestamp: time.Now().UTC()}
}

// ToJSON converts the message to JSON bytes
func (m LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON creates a message from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
