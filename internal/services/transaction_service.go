// Package services orchestrates domain operations across the store, the
// ledger aggregation, and the AMQP change feed.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// ChangePublisher fans a change notification out to other instances.
// *amqp.Client satisfies it.
type ChangePublisher interface {
	PublishChange(ctx context.Context, identity, collection string) error
}

// TransactionService validates and executes transaction operations. Writes
// fail closed: nothing reaches the store or the change feed unless the
// record is fully valid.
type TransactionService struct {
	txns      store.TransactionStore
	publisher ChangePublisher
}

func NewTransactionService(txns store.TransactionStore, publisher ChangePublisher) *TransactionService {
	return &TransactionService{
		txns:      txns,
		publisher: publisher,
	}
}

func (s *TransactionService) Create(ctx context.Context, identity string, fields store.TransactionFields) (string, error) {
	if err := validateFields(fields); err != nil {
		return "", err
	}

	id, err := s.txns.CreateTransaction(ctx, identity, fields)
	if err != nil {
		return "", fmt.Errorf("create transaction: %w", err)
	}

	s.publishChange(ctx, identity)
	return id, nil
}

func (s *TransactionService) Update(ctx context.Context, identity, id string, fields store.TransactionFields) error {
	if err := validateFields(fields); err != nil {
		return err
	}

	if err := s.txns.UpdateTransaction(ctx, identity, id, fields); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	s.publishChange(ctx, identity)
	return nil
}

func (s *TransactionService) Delete(ctx context.Context, identity, id string) error {
	if err := s.txns.DeleteTransaction(ctx, identity, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.publishChange(ctx, identity)
	return nil
}

func (s *TransactionService) List(ctx context.Context, identity string, order store.Order) ([]core.Transaction, error) {
	txns, err := s.txns.ListTransactions(ctx, identity, order)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}

// Search lists the identity's transactions newest-first and filters them by
// the free-text term.
func (s *TransactionService) Search(ctx context.Context, identity, term string) ([]core.Transaction, error) {
	txns, err := s.List(ctx, identity, store.Order{Field: store.OrderByDate, Direction: store.Descending})
	if err != nil {
		return nil, err
	}
	return core.Filter(txns, term), nil
}

// Months returns the identity's month partition keys, most recent first.
func (s *TransactionService) Months(ctx context.Context, identity string) ([]string, error) {
	txns, err := s.List(ctx, identity, store.Order{Field: store.OrderByDate, Direction: store.Descending})
	if err != nil {
		return nil, err
	}
	return core.PartitionKeys(txns), nil
}

// Ledger aggregates the identity's full history into the balance snapshot
// for the month asOf falls in.
func (s *TransactionService) Ledger(ctx context.Context, identity string, asOf core.Date) (core.LedgerSnapshot, error) {
	txns, err := s.List(ctx, identity, store.Order{Field: store.OrderByDate, Direction: store.Ascending})
	if err != nil {
		return core.LedgerSnapshot{}, err
	}
	return core.Summarize(txns, asOf), nil
}

// Subscribe streams ordered transaction snapshots for one identity.
func (s *TransactionService) Subscribe(identity string, order store.Order, onSnapshot func([]core.Transaction), onError func(error)) store.Unsubscribe {
	return s.txns.SubscribeTransactions(identity, order, onSnapshot, onError)
}

// publishChange tells other instances the identity's transactions changed.
// Local reads already see the write, so a publish failure is logged and
// swallowed.
func (s *TransactionService) publishChange(ctx context.Context, identity string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishChange(ctx, identity, store.CollectionTransactions); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change message",
			"identity", identity,
			"error", err)
	}
}

func validateFields(fields store.TransactionFields) error {
	probe := core.Transaction{
		ID:          "probe",
		Amount:      fields.Amount,
		Description: fields.Description,
		Category:    fields.Category,
		Type:        fields.Type,
		Date:        fields.Date,
	}
	return probe.Validate()
}
