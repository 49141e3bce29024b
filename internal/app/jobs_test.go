package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/mmynk/ebills/internal/models"
	"github.com/mmynk/ebills/internal/money"
	"github.com/mmynk/ebills/internal/notify"
)

type billListerStub struct {
	bills []*models.Bill
	err   error
}

func (s *billListerStub) ListOpenBills(ctx context.Context) ([]*models.Bill, error) {
	return s.bills, s.err
}

type notifierStub struct {
	events []notify.Event
	err    error
}

func (s *notifierStub) Notify(ctx context.Context, event notify.Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func newTestJobs(bills BillLister, notifier notify.Notifier) *Jobs {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewJobs(bills, notifier, logger)
}

func equalSplitBill(id string, paid ...string) *models.Bill {
	bill := &models.Bill{
		ID:          id,
		Name:        "Bill " + id,
		Scenario:    models.EqualSplit,
		Currency:    money.UAH,
		TotalAmount: money.MustParse("300", money.UAH),
		Status:      models.BillOpen,
		OrganizerID: "org",
	}
	for i, p := range paid {
		bill.Participants = append(bill.Participants, models.Participant{
			ParticipantID: id + "-p" + string(rune('a'+i)),
			UserID:        "user-" + string(rune('a'+i)),
			Paid:          money.MustParse(p, money.UAH),
		})
	}
	return bill
}

func TestSendDebtReminders_NotifiesDebtors(t *testing.T) {
	lister := &billListerStub{bills: []*models.Bill{
		equalSplitBill("b1", "100", "40"),
		equalSplitBill("b2", "0", "0"),
	}}
	notifier := &notifierStub{}
	jobs := newTestJobs(lister, notifier)

	sent, err := jobs.sendDebtReminders(context.Background())
	if err != nil {
		t.Fatalf("sendDebtReminders returned error: %v", err)
	}
	if sent != 3 {
		t.Fatalf("expected 3 reminders, got %d", sent)
	}

	first := notifier.events[0]
	if first.Kind != notify.DebtReminder {
		t.Errorf("expected debt reminder, got %s", first.Kind)
	}
	if first.BillID != "b1" || len(first.Recipients) != 1 || first.Recipients[0] != "user-b" {
		t.Errorf("expected user-b on b1 to be reminded first, got %+v", first)
	}
	if first.Amount != "60.00" || first.Currency != money.UAH {
		t.Errorf("expected 60.00 UAH, got %s %s", first.Amount, first.Currency)
	}
	for _, e := range notifier.events {
		if e.Recipients[0] == "org" {
			t.Errorf("organizer must not be reminded: %+v", e)
		}
	}
}

func TestSendDebtReminders_SkipsBrokenBills(t *testing.T) {
	broken := equalSplitBill("bad", "0")
	broken.Currency = ""
	lister := &billListerStub{bills: []*models.Bill{broken, equalSplitBill("ok", "0")}}
	notifier := &notifierStub{}

	sent, err := newTestJobs(lister, notifier).sendDebtReminders(context.Background())
	if err != nil {
		t.Fatalf("sendDebtReminders returned error: %v", err)
	}
	if sent != 1 || notifier.events[0].BillID != "ok" {
		t.Fatalf("expected one reminder for the valid bill, got %+v", notifier.events)
	}
}

func TestSendDebtReminders_ListError(t *testing.T) {
	lister := &billListerStub{err: errors.New("db down")}
	notifier := &notifierStub{}

	if _, err := newTestJobs(lister, notifier).sendDebtReminders(context.Background()); err == nil {
		t.Fatal("expected list error")
	}
	if len(notifier.events) != 0 {
		t.Fatalf("expected no notifications, got %d", len(notifier.events))
	}
}

func TestSendDebtReminders_NotifierErrorIsNotCounted(t *testing.T) {
	lister := &billListerStub{bills: []*models.Bill{equalSplitBill("b1", "0")}}
	notifier := &notifierStub{err: errors.New("broker down")}

	sent, err := newTestJobs(lister, notifier).sendDebtReminders(context.Background())
	if err != nil {
		t.Fatalf("sendDebtReminders returned error: %v", err)
	}
	if sent != 0 {
		t.Fatalf("expected no reminders counted, got %d", sent)
	}
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jobs := newTestJobs(&billListerStub{}, &notifierStub{})

	if err := NewScheduler(jobs, logger, "not a cron spec").Start(); err == nil {
		t.Fatal("expected schedule parse error")
	}

	s := NewScheduler(jobs, logger, "0 10 * * *")
	if err := s.Start(); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	<-s.Stop().Done()
}
