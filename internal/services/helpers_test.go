package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"mfn/internal/amqp"
	"mfn/internal/core"
	"mfn/internal/log"
	"mfn/internal/storage"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, event amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]amqp.EventType, len(p.events))
	for i, e := range p.events {
		types[i] = e.Type
	}
	return types
}

func newTestLedger(t *testing.T) (*Ledger, *recordingPublisher) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "mfn.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	publisher := &recordingPublisher{}
	ledger := NewLedger(repo, publisher, log.Discard())
	t.Cleanup(func() { _ = repo.Close() })
	return ledger, publisher
}

func money(units float64) core.Money {
	return core.Money{Cents: int64(units*100 + 0.5)}
}

func mustRegister(t *testing.T, l *Ledger, number string, billingDay int, holder string, limit core.Money) {
	t.Helper()
	if err := l.Cards.RegisterCard(context.Background(), number, billingDay, holder, limit); err != nil {
		t.Fatalf("RegisterCard(%s): %v", number, err)
	}
}

func mustAddDebt(t *testing.T, l *Ledger, req DebtRequest) core.Debt {
	t.Helper()
	debt, err := l.Debts.AddDebt(context.Background(), req)
	if err != nil {
		t.Fatalf("AddDebt(%+v): %v", req, err)
	}
	return debt
}
