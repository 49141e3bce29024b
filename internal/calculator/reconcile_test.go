package calculator

import (
	"errors"
	"reflect"
	"testing"

	"github.com/mmynk/ebills/internal/models"
	"github.com/mmynk/ebills/internal/money"
)

func uah(s string) money.Money { return money.MustParse(s, money.UAH) }

func equalSplitBill(total string, paid ...string) *models.Bill {
	bill := &models.Bill{
		ID:          "bill-1",
		Scenario:    models.EqualSplit,
		Currency:    money.UAH,
		TotalAmount: uah(total),
		Status:      models.BillOpen,
		OrganizerID: "org",
	}
	for i, p := range paid {
		bill.Participants = append(bill.Participants, models.Participant{
			ParticipantID: "p" + string(rune('a'+i)),
			UserID:        "user-" + string(rune('a'+i)),
			Paid:          uah(p),
		})
	}
	return bill
}

func individualBill(organizerSpend string, assigned ...[2]string) *models.Bill {
	bill := &models.Bill{
		ID:          "bill-2",
		Scenario:    models.IndividualAmounts,
		Currency:    money.UAH,
		Status:      models.BillOpen,
		OrganizerID: "org",
		Participants: []models.Participant{
			{ParticipantID: "p-org", UserID: "org", Assigned: uah(organizerSpend), IsAdmin: true},
		},
	}
	for i, ap := range assigned {
		bill.Participants = append(bill.Participants, models.Participant{
			ParticipantID: "p" + string(rune('a'+i)),
			UserID:        "user-" + string(rune('a'+i)),
			Assigned:      uah(ap[0]),
			Paid:          uah(ap[1]),
		})
	}
	return bill
}

func sharedBill(organizerSpent string, spent ...string) *models.Bill {
	bill := &models.Bill{
		ID:          "bill-3",
		Scenario:    models.SharedExpenses,
		Currency:    money.UAH,
		Status:      models.BillOpen,
		OrganizerID: "org",
		Participants: []models.Participant{
			{ParticipantID: "p-org", UserID: "org", Spent: uah(organizerSpent), IsAdmin: true},
		},
	}
	for i, s := range spent {
		bill.Participants = append(bill.Participants, models.Participant{
			ParticipantID: "p" + string(rune('a'+i)),
			UserID:        "user-" + string(rune('a'+i)),
			Spent:         uah(s),
		})
	}
	return bill
}

func assertMoney(t *testing.T, what string, got money.Money, want string) {
	t.Helper()
	if !got.SameAmount(uah(want)) {
		t.Errorf("%s = %s, want %s", what, got, want)
	}
}

func TestReconcile_EqualSplit(t *testing.T) {
	tests := []struct {
		name       string
		paid       string
		wantDebt   string
		wantStatus models.ParticipantStatus
	}{
		{name: "pays full share", paid: "100", wantDebt: "0", wantStatus: models.Paid},
		{name: "pays part of share", paid: "40", wantDebt: "60", wantStatus: models.PartiallyPaid},
		{name: "pays nothing", paid: "0", wantDebt: "100", wantStatus: models.Unpaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Organizer plus two participants share 300.
			bill := equalSplitBill("300", tt.paid, "0")

			if _, err := Reconcile(bill); err != nil {
				t.Fatalf("Reconcile failed: %v", err)
			}

			for _, p := range bill.Participants {
				assertMoney(t, p.UserID+" assigned", p.Assigned, "100")
			}
			first := bill.Participants[0]
			assertMoney(t, "debt", first.Debt, tt.wantDebt)
			if first.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", first.Status, tt.wantStatus)
			}
			assertMoney(t, "total", bill.TotalAmount, "300")
		})
	}
}

func TestReconcile_EqualSplitOrganizerAbsorbsRemainder(t *testing.T) {
	bill := equalSplitBill("100", "0", "0")
	if _, err := Reconcile(bill); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	for _, p := range bill.Participants {
		assertMoney(t, p.UserID+" assigned", p.Assigned, "33.33")
	}
}

func TestReconcile_IndividualAmounts(t *testing.T) {
	bill := individualBill("50", [2]string{"200", "0"})

	if _, err := Reconcile(bill); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	org := bill.Participants[0]
	assertMoney(t, "organizer paid", org.Paid, "50")
	assertMoney(t, "organizer debt", org.Debt, "0")
	if org.Status != models.Paid {
		t.Errorf("organizer status = %s, want paid", org.Status)
	}

	a := bill.Participants[1]
	assertMoney(t, "participant debt", a.Debt, "200")
	if a.Status != models.Unpaid {
		t.Errorf("participant status = %s, want unpaid", a.Status)
	}
	assertMoney(t, "total", bill.TotalAmount, "250")
	if bill.Settlement != models.Unsettled {
		t.Errorf("settlement = %q, want %q", bill.Settlement, models.Unsettled)
	}
}

func TestReconcile_SharedExpenses(t *testing.T) {
	bill := sharedBill("300", "0", "300")

	if _, err := Reconcile(bill); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	want := []struct {
		balance, debt string
		status        models.ParticipantStatus
	}{
		{"100", "0", models.Paid},
		{"-200", "200", models.Unpaid},
		{"100", "0", models.Paid},
	}
	for i, w := range want {
		p := bill.Participants[i]
		assertMoney(t, p.UserID+" assigned", p.Assigned, "200")
		assertMoney(t, p.UserID+" balance", p.Balance, w.balance)
		assertMoney(t, p.UserID+" debt", p.Debt, w.debt)
		if p.Status != w.status {
			t.Errorf("%s status = %s, want %s", p.UserID, p.Status, w.status)
		}
	}
	assertMoney(t, "total", bill.TotalAmount, "600")
}

func TestReconcile_ClampsOverpayment(t *testing.T) {
	bill := individualBill("50", [2]string{"200", "250"})

	res, err := Reconcile(bill)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	a := bill.Participants[1]
	assertMoney(t, "paid", a.Paid, "200")
	assertMoney(t, "debt", a.Debt, "0")
	if len(res.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(res.Warnings))
	}
	w := res.Warnings[0]
	if w.UserID != "user-a" {
		t.Errorf("warning user = %s, want user-a", w.UserID)
	}
	assertMoney(t, "warning requested", w.Requested, "250")
	assertMoney(t, "warning applied", w.Applied, "200")
	if bill.Settlement != models.FullySettled {
		t.Errorf("settlement = %q, want %q", bill.Settlement, models.FullySettled)
	}
}

func TestReconcile_Settlement(t *testing.T) {
	tests := []struct {
		name string
		bill *models.Bill
		want models.SettlementState
	}{
		{name: "all paid", bill: equalSplitBill("300", "100", "100"), want: models.FullySettled},
		{name: "one partial", bill: equalSplitBill("300", "100", "50"), want: models.PartiallySettled},
		{name: "paid and unpaid", bill: equalSplitBill("300", "100", "0"), want: models.Unsettled},
		{name: "nobody paid", bill: equalSplitBill("300", "0", "0"), want: models.Unsettled},
		{name: "no participants", bill: equalSplitBill("300"), want: models.Unsettled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Reconcile(tt.bill)
			if err != nil {
				t.Fatalf("Reconcile failed: %v", err)
			}
			if res.Settlement != tt.want || tt.bill.Settlement != tt.want {
				t.Errorf("settlement = %q (bill %q), want %q", res.Settlement, tt.bill.Settlement, tt.want)
			}
		})
	}
}

func TestReconcile_Invariants(t *testing.T) {
	bills := []*models.Bill{
		equalSplitBill("1000", "0", "50", "333.33", "400"),
		equalSplitBill("0.05", "0", "0.01"),
		individualBill("0", [2]string{"10", "3"}, [2]string{"99.99", "120"}),
		individualBill("75.5", [2]string{"0.01", "0"}),
		sharedBill("10", "0", "0", "7.77"),
		sharedBill("0", "0"),
	}

	for _, bill := range bills {
		t.Run(string(bill.Scenario), func(t *testing.T) {
			if _, err := Reconcile(bill); err != nil {
				t.Fatalf("Reconcile failed: %v", err)
			}
			policy, _ := PolicyFor(bill.Scenario)

			total := money.Zero(money.UAH)
			for _, p := range bill.Participants {
				effective := policy.EffectivePaid(p)
				want := p.Assigned.Sub(effective).NonNegative()
				if !p.Debt.SameAmount(want) {
					t.Errorf("%s debt = %s, want max(assigned-paid, 0) = %s", p.UserID, p.Debt, want)
				}
				if p.Debt.IsNegative() {
					t.Errorf("%s has negative debt %s", p.UserID, p.Debt)
				}
				switch {
				case p.Debt.IsZero() && p.Assigned.IsPositive():
					if p.Status != models.Paid {
						t.Errorf("%s status = %s, want paid", p.UserID, p.Status)
					}
				case effective.IsZero():
					if p.Status != models.Unpaid {
						t.Errorf("%s status = %s, want unpaid", p.UserID, p.Status)
					}
				default:
					if p.Status != models.PartiallyPaid {
						t.Errorf("%s status = %s, want partially paid", p.UserID, p.Status)
					}
				}
				switch bill.Scenario {
				case models.IndividualAmounts:
					total = total.Add(p.Assigned)
				case models.SharedExpenses:
					total = total.Add(p.Spent)
				}
			}
			if bill.Scenario != models.EqualSplit && !total.SameAmount(bill.TotalAmount) {
				t.Errorf("total = %s, want %s", bill.TotalAmount, total)
			}
		})
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	bills := []*models.Bill{
		equalSplitBill("100", "50", "40"),
		individualBill("10", [2]string{"5", "9"}),
		sharedBill("12.34", "0", "56.78"),
	}

	for _, bill := range bills {
		t.Run(string(bill.Scenario), func(t *testing.T) {
			if _, err := Reconcile(bill); err != nil {
				t.Fatalf("first Reconcile failed: %v", err)
			}
			once := bill.Clone()

			res, err := Reconcile(bill)
			if err != nil {
				t.Fatalf("second Reconcile failed: %v", err)
			}
			if len(res.Warnings) != 0 {
				t.Errorf("second Reconcile produced warnings: %v", res.Warnings)
			}
			if !sameDerived(once, bill) {
				t.Errorf("Reconcile is not idempotent:\nonce:  %+v\ntwice: %+v", once, bill)
			}
		})
	}
}

// sameDerived compares amounts by value, so differently scaled decimals match.
func sameDerived(a, b *models.Bill) bool {
	if !a.TotalAmount.Equal(b.TotalAmount) || a.Settlement != b.Settlement || len(a.Participants) != len(b.Participants) {
		return false
	}
	for i := range a.Participants {
		pa, pb := a.Participants[i], b.Participants[i]
		if pa.UserID != pb.UserID || pa.Status != pb.Status ||
			!pa.Assigned.Equal(pb.Assigned) || !pa.Paid.Equal(pb.Paid) || !pa.Spent.Equal(pb.Spent) ||
			!pa.Balance.Equal(pb.Balance) || !pa.Debt.Equal(pb.Debt) {
			return false
		}
	}
	return true
}

func TestReconcile_PreservesIdentity(t *testing.T) {
	bill := individualBill("20", [2]string{"30", "0"})
	bill.Status = models.BillClosed
	bill.Participants[1].IsEditor = true

	if _, err := Reconcile(bill); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if bill.Status != models.BillClosed {
		t.Errorf("status changed to %s", bill.Status)
	}
	p := bill.Participants[1]
	if p.ParticipantID != "pa" || p.UserID != "user-a" || !p.IsEditor || p.IsAdmin {
		t.Errorf("identity fields changed: %+v", p)
	}
}

func TestReconcile_RejectsInvalidInput(t *testing.T) {
	zeroShare := individualBill("10", [2]string{"0", "0"})
	negativeSpend := sharedBill("10", "-1")
	noOrganizer := sharedBill("10", "5")
	noOrganizer.Participants[0].IsAdmin = false
	listedOrganizer := equalSplitBill("100", "0")
	listedOrganizer.Participants[0].UserID = "org"
	duplicate := equalSplitBill("100", "0", "0")
	duplicate.Participants[1].UserID = duplicate.Participants[0].UserID
	unknown := equalSplitBill("100", "0")
	unknown.Scenario = "lottery"

	tests := []struct {
		name string
		bill *models.Bill
	}{
		{name: "zero individual amount", bill: zeroShare},
		{name: "negative spend", bill: negativeSpend},
		{name: "missing organizer row", bill: noOrganizer},
		{name: "organizer listed in equal split", bill: listedOrganizer},
		{name: "duplicate user", bill: duplicate},
		{name: "unknown scenario", bill: unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.bill.Clone()
			_, err := Reconcile(tt.bill)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Reconcile error = %v, want ValidationError", err)
			}
			if !reflect.DeepEqual(before, tt.bill) {
				t.Errorf("bill changed despite error")
			}
		})
	}
}

func TestReconcile_CurrencyMismatch(t *testing.T) {
	bill := individualBill("10", [2]string{"20", "0"})
	bill.Participants[1].Assigned = money.MustParse("20", money.USD)
	before := bill.Clone()

	_, err := Reconcile(bill)
	var cerr *CurrencyMismatchError
	if !errors.As(err, &cerr) {
		t.Fatalf("Reconcile error = %v, want CurrencyMismatchError", err)
	}
	if cerr.Expected != money.UAH || cerr.Got != money.USD || cerr.UserID != "user-a" {
		t.Errorf("unexpected error details: %+v", cerr)
	}
	if !reflect.DeepEqual(before, bill) {
		t.Error("bill changed despite error")
	}
}

func TestReconcile_NewParticipantWithoutAmount(t *testing.T) {
	bill := individualBill("10", [2]string{"20", "0"})
	bill.Participants = append(bill.Participants, models.Participant{
		ParticipantID: "p-new", UserID: "newcomer", IsNew: true, Assigned: uah("0"), Paid: uah("0"),
	})

	if _, err := Reconcile(bill); err != nil {
		t.Fatalf("Reconcile failed for unpriced new participant: %v", err)
	}
	p := bill.Participants[2]
	if p.Status != models.Unpaid {
		t.Errorf("new participant status = %s, want unpaid", p.Status)
	}
	assertMoney(t, "total", bill.TotalAmount, "30")
}

func TestPolicyEditable(t *testing.T) {
	tests := []struct {
		scenario  models.ScenarioKind
		field     Field
		organizer bool
		want      bool
	}{
		{models.EqualSplit, FieldPaid, false, true},
		{models.EqualSplit, FieldAssigned, false, false},
		{models.EqualSplit, FieldSpent, false, false},
		{models.IndividualAmounts, FieldAssigned, false, true},
		{models.IndividualAmounts, FieldPaid, false, true},
		{models.IndividualAmounts, FieldAssigned, true, true},
		{models.IndividualAmounts, FieldPaid, true, false},
		{models.SharedExpenses, FieldSpent, true, true},
		{models.SharedExpenses, FieldPaid, false, true},
		{models.SharedExpenses, FieldAssigned, false, false},
	}

	for _, tt := range tests {
		policy, err := PolicyFor(tt.scenario)
		if err != nil {
			t.Fatalf("PolicyFor(%s) failed: %v", tt.scenario, err)
		}
		if got := policy.Editable(tt.field, tt.organizer); got != tt.want {
			t.Errorf("%s.Editable(%s, organizer=%v) = %v, want %v", tt.scenario, tt.field, tt.organizer, got, tt.want)
		}
	}
}

func TestReconcile_SettlementIgnoresRowsWithoutStake(t *testing.T) {
	bill := individualBill("10", [2]string{"20", "20"})
	bill.Participants = append(bill.Participants, models.Participant{
		ParticipantID: "p-new", UserID: "newcomer", IsNew: true, Assigned: uah("0"), Paid: uah("0"),
	})

	res, err := Reconcile(bill)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if res.Settlement != models.FullySettled {
		t.Errorf("settlement = %q, want %q with only an unpriced row left", res.Settlement, models.FullySettled)
	}

	empty := sharedBill("0", "0")
	if res, err := Reconcile(empty); err != nil || res.Settlement != models.Unsettled {
		t.Errorf("Reconcile(all zero) = %q, %v; want %q", res.Settlement, err, models.Unsettled)
	}
}
