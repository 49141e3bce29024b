package calculator

import (
	"testing"

	"github.com/mmynk/ebills/internal/models"
	"github.com/mmynk/ebills/internal/money"
)

func TestSummarizeUserBalances(t *testing.T) {
	// user-a owes 60 on an equal split organized by someone else.
	equal := equalSplitBill("300", "40", "100")

	// user-a organizes an individual-amounts bill where user-x owes 70.
	individual := &models.Bill{
		ID:          "individual",
		Scenario:    models.IndividualAmounts,
		Currency:    money.UAH,
		Status:      models.BillOpen,
		OrganizerID: "user-a",
		Participants: []models.Participant{
			{UserID: "user-a", Assigned: uah("10"), IsAdmin: true},
			{UserID: "user-x", Assigned: uah("100"), Paid: uah("30")},
		},
	}

	// Closed bills are ignored.
	closed := equalSplitBill("900", "0")
	closed.Status = models.BillClosed

	// A USD shared-expense bill where user-a is a creditor of 5.
	shared := &models.Bill{
		ID:          "shared",
		Scenario:    models.SharedExpenses,
		Currency:    money.USD,
		Status:      models.BillOpen,
		OrganizerID: "org",
		Participants: []models.Participant{
			{UserID: "org", Spent: money.MustParse("0", money.USD), IsAdmin: true},
			{UserID: "user-a", Spent: money.MustParse("15", money.USD)},
			{UserID: "user-b", Spent: money.MustParse("15", money.USD)},
		},
	}

	balances, err := SummarizeUserBalances([]*models.Bill{equal, individual, closed, shared}, "user-a")
	if err != nil {
		t.Fatalf("SummarizeUserBalances failed: %v", err)
	}
	if len(balances) != 2 {
		t.Fatalf("got %d currencies, want 2: %+v", len(balances), balances)
	}

	hryvnia := balances[0]
	if hryvnia.Currency != money.UAH {
		t.Fatalf("first currency = %s, want UAH", hryvnia.Currency)
	}
	assertMoney(t, "UAH owes", hryvnia.Owes, "60")
	assertMoney(t, "UAH owed", hryvnia.Owed, "70")
	assertMoney(t, "UAH net", hryvnia.Net, "10")
	if hryvnia.Bills != 2 {
		t.Errorf("UAH bills = %d, want 2", hryvnia.Bills)
	}

	dollars := balances[1]
	if dollars.Currency != money.USD {
		t.Fatalf("second currency = %s, want USD", dollars.Currency)
	}
	if !dollars.Owed.SameAmount(money.MustParse("5", money.USD)) {
		t.Errorf("USD owed = %s, want 5", dollars.Owed)
	}
	if !dollars.Owes.IsZero() {
		t.Errorf("USD owes = %s, want 0", dollars.Owes)
	}
}

func TestSettlementPlan(t *testing.T) {
	t.Run("debtors pay the organizer", func(t *testing.T) {
		bill := equalSplitBill("300", "40", "100")
		if _, err := Reconcile(bill); err != nil {
			t.Fatalf("Reconcile failed: %v", err)
		}
		plan := SettlementPlan(bill)
		if len(plan) != 1 {
			t.Fatalf("got %d transfers, want 1: %+v", len(plan), plan)
		}
		if plan[0].From != "user-a" || plan[0].To != "org" {
			t.Errorf("transfer = %+v, want user-a -> org", plan[0])
		}
		assertMoney(t, "amount", plan[0].Amount, "60")
	})

	t.Run("shared expenses match debtors with creditors", func(t *testing.T) {
		bill := sharedBill("300", "0", "300")
		if _, err := Reconcile(bill); err != nil {
			t.Fatalf("Reconcile failed: %v", err)
		}
		plan := SettlementPlan(bill)
		if len(plan) != 2 {
			t.Fatalf("got %d transfers, want 2: %+v", len(plan), plan)
		}
		total := money.Zero(money.UAH)
		for _, tr := range plan {
			if tr.From != "user-a" {
				t.Errorf("unexpected debtor %s", tr.From)
			}
			assertMoney(t, "transfer to "+tr.To, tr.Amount, "100")
			total = total.Add(tr.Amount)
		}
		assertMoney(t, "total transferred", total, "200")
	})

	t.Run("settled bill needs no transfers", func(t *testing.T) {
		bill := sharedBill("50", "50")
		if _, err := Reconcile(bill); err != nil {
			t.Fatalf("Reconcile failed: %v", err)
		}
		if plan := SettlementPlan(bill); len(plan) != 0 {
			t.Errorf("got %d transfers, want none: %+v", len(plan), plan)
		}
	})
}
