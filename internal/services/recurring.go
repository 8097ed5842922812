package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// RecurringService validates and executes recurring-rule operations.
type RecurringService struct {
	rules store.RecurringStore
}

func NewRecurringService(rules store.RecurringStore) *RecurringService {
	return &RecurringService{rules: rules}
}

func (s *RecurringService) Create(ctx context.Context, identity string, fields store.RecurringFields) (string, error) {
	if err := validateRecurring(fields); err != nil {
		return "", err
	}
	id, err := s.rules.CreateRecurring(ctx, identity, fields)
	if err != nil {
		return "", fmt.Errorf("create recurring rule: %w", err)
	}
	return id, nil
}

func (s *RecurringService) Update(ctx context.Context, identity, id string, fields store.RecurringFields) error {
	if err := validateRecurring(fields); err != nil {
		return err
	}
	if err := s.rules.UpdateRecurring(ctx, identity, id, fields); err != nil {
		return fmt.Errorf("update recurring rule: %w", err)
	}
	return nil
}

func (s *RecurringService) Delete(ctx context.Context, identity, id string) error {
	if err := s.rules.DeleteRecurring(ctx, identity, id); err != nil {
		return fmt.Errorf("delete recurring rule: %w", err)
	}
	return nil
}

func (s *RecurringService) List(ctx context.Context, identity string) ([]store.RecurringRule, error) {
	rules, err := s.rules.ListRecurring(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("list recurring rules: %w", err)
	}
	return rules, nil
}

func validateRecurring(fields store.RecurringFields) error {
	if err := fields.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(fields.Description) == "" {
		return core.ErrEmptyDescription
	}
	if strings.TrimSpace(fields.Category) == "" {
		return core.ErrEmptyCategory
	}
	if !fields.Type.Valid() {
		return core.ErrInvalidType
	}
	if !fields.Frequency.Valid() {
		return core.ErrInvalidFrequency
	}
	if err := fields.StartDate.Validate(); err != nil {
		return err
	}
	return nil
}

// RecurringProcessor materializes due rules into transactions.
type RecurringProcessor struct {
	rules store.RecurringStore
	txns  *TransactionService
}

func NewRecurringProcessor(rules store.RecurringStore, txns *TransactionService) *RecurringProcessor {
	return &RecurringProcessor{
		rules: rules,
		txns:  txns,
	}
}

// ProcessDue sweeps every active rule across all identities and creates a
// transaction for each rule that is due at now. A failing rule is logged and
// skipped; the sweep continues. Returns how many rules fired.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	owned, err := p.rules.ActiveRecurring(ctx)
	if err != nil {
		return 0, fmt.Errorf("get active recurring rules: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring rules",
		"total_active", len(owned),
		"processing_date", now.UTC().Format("2006-01-02"))

	processed := 0
	for _, o := range owned {
		rule := o.Rule

		checker, err := GetDuenessChecker(rule.Frequency)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping rule with unknown frequency",
				"id", rule.ID,
				"frequency", rule.Frequency)
			continue
		}
		if !checker.IsDue(rule.LastRun, now, rule.StartDate) {
			continue
		}

		_, err = p.txns.Create(ctx, o.Identity, store.TransactionFields{
			Amount:      rule.Amount,
			Description: rule.Description,
			Category:    rule.Category,
			Type:        rule.Type,
			Date:        core.DateOf(now),
		})
		if err != nil {
			slog.ErrorContext(ctx, "Failed to create transaction from recurring rule",
				"id", rule.ID,
				"description", rule.Description,
				"error", err)
			continue
		}

		if err := p.rules.MarkRecurringRun(ctx, o.Identity, rule.ID, now); err != nil {
			// The transaction exists; the rule may fire again next sweep.
			slog.ErrorContext(ctx, "Failed to record recurring run",
				"id", rule.ID,
				"error", err)
		}

		processed++
		slog.InfoContext(ctx, "Created transaction from recurring rule",
			"id", rule.ID,
			"description", rule.Description,
			"amount_cents", rule.Amount.Cents,
			"frequency", rule.Frequency)
	}

	slog.InfoContext(ctx, "Recurring rule processing complete",
		"processed", processed,
		"total_checked", len(owned))

	return processed, nil
}

// Run sweeps immediately and then on every interval tick until ctx is
// canceled.
func (p *RecurringProcessor) Run(ctx context.Context, interval time.Duration) error {
	if _, err := p.ProcessDue(ctx, time.Now()); err != nil {
		slog.ErrorContext(ctx, "Recurring sweep failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := p.ProcessDue(ctx, time.Now()); err != nil {
				slog.ErrorContext(ctx, "Recurring sweep failed", "error", err)
			}
		}
	}
}
