package app

import (
	"context"
	"log/slog"

	"github.com/mmynk/ebills/internal/calculator"
	"github.com/mmynk/ebills/internal/models"
	"github.com/mmynk/ebills/internal/money"
	"github.com/mmynk/ebills/internal/notify"
)

// BillLister is the storage the jobs need.
type BillLister interface {
	ListOpenBills(ctx context.Context) ([]*models.Bill, error)
}

// Jobs contains the logic for all scheduled tasks.
type Jobs struct {
	bills    BillLister
	notifier notify.Notifier
	logger   *slog.Logger
}

// NewJobs creates a new Jobs runner.
func NewJobs(bills BillLister, notifier notify.Notifier, logger *slog.Logger) *Jobs {
	return &Jobs{
		bills:    bills,
		notifier: notifier,
		logger:   logger,
	}
}

// SendDebtReminders notifies every participant who still owes money on an
// open bill. The organizer is never reminded.
func (j *Jobs) SendDebtReminders() {
	j.logger.Info("starting debt reminder job")
	sent, err := j.sendDebtReminders(context.Background())
	if err != nil {
		j.logger.Error("failed to send debt reminders", "error", err)
		return
	}
	j.logger.Info("debt reminder job finished", "reminders", sent)
}

func (j *Jobs) sendDebtReminders(ctx context.Context) (int, error) {
	bills, err := j.bills.ListOpenBills(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, bill := range bills {
		if _, err := calculator.Reconcile(bill); err != nil {
			j.logger.Warn("skipping bill that does not reconcile", "bill_id", bill.ID, "error", err)
			continue
		}
		for _, p := range bill.Participants {
			if p.UserID == bill.OrganizerID || !p.Debt.IsPositive() {
				continue
			}
			err := j.notifier.Notify(ctx, notify.Event{
				Kind:       notify.DebtReminder,
				BillID:     bill.ID,
				BillName:   bill.Name,
				ActorID:    bill.OrganizerID,
				Recipients: []string{p.UserID},
				Amount:     p.Debt.Amount.StringFixed(money.Places),
				Currency:   bill.Currency,
			})
			if err != nil {
				j.logger.Error("failed to send debt reminder", "bill_id", bill.ID, "user_id", p.UserID, "error", err)
				continue
			}
			sent++
		}
	}
	return sent, nil
}
