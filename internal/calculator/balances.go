package calculator

import (
	"fmt"
	"sort"

	"github.com/mmynk/ebills/internal/models"
	"github.com/mmynk/ebills/internal/money"
)

// UserBalance is one user's position across their open bills in one currency.
type UserBalance struct {
	Currency string
	Owes     money.Money // Sum of the user's own debts
	Owed     money.Money // What others still owe on the user's bills
	Net      money.Money // Owed - Owes. Positive = others owe the user
	Bills    int         // Open bills contributing to this currency
}

// Transfer is a suggested payment from a debtor to a creditor.
type Transfer struct {
	From   string // User who owes
	To     string // User who is owed
	Amount money.Money
}

// SummarizeUserBalances aggregates userID's debts and credits over bills.
// Bills are reconciled on a copy; closed bills are skipped. Results are
// sorted by currency.
//
// Algorithm:
//   - Owes: the user's own debt on every bill they participate in
//   - Owed, shared expenses: the user's positive balance
//   - Owed, other scenarios: other participants' debts on bills the user organizes
func SummarizeUserBalances(bills []*models.Bill, userID string) ([]UserBalance, error) {
	byCurrency := make(map[string]*UserBalance)

	for _, original := range bills {
		if !original.IsOpen() || !original.IsMember(userID) {
			continue
		}
		bill := original.Clone()
		if _, err := Reconcile(bill); err != nil {
			return nil, fmt.Errorf("failed to reconcile bill %s: %w", bill.ID, err)
		}

		bal, ok := byCurrency[bill.Currency]
		if !ok {
			bal = &UserBalance{
				Currency: bill.Currency,
				Owes:     money.Zero(bill.Currency),
				Owed:     money.Zero(bill.Currency),
			}
			byCurrency[bill.Currency] = bal
		}
		bal.Bills++

		if i := bill.UserIndex(userID); i >= 0 {
			bal.Owes = bal.Owes.Add(bill.Participants[i].Debt)
			if bill.Scenario == models.SharedExpenses {
				bal.Owed = bal.Owed.Add(bill.Participants[i].Balance.NonNegative())
				continue
			}
		}
		if bill.OrganizerID == userID {
			for _, p := range bill.Participants {
				if p.UserID != userID {
					bal.Owed = bal.Owed.Add(p.Debt)
				}
			}
		}
	}

	result := make([]UserBalance, 0, len(byCurrency))
	for _, bal := range byCurrency {
		bal.Net = bal.Owed.Sub(bal.Owes)
		result = append(result, *bal)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Currency < result[j].Currency })
	return result, nil
}

// SettlementPlan suggests who pays whom for a reconciled bill.
//
// Equal split and individual amounts bills are owed to the organizer, so every
// debtor pays the organizer directly. For shared expenses, debtors (negative
// balance) are matched greedily with creditors (positive balance), largest
// first, which keeps the number of transfers small.
func SettlementPlan(bill *models.Bill) []Transfer {
	if bill.Scenario != models.SharedExpenses {
		var plan []Transfer
		for _, p := range bill.Participants {
			if p.UserID != bill.OrganizerID && p.Debt.IsPositive() {
				plan = append(plan, Transfer{From: p.UserID, To: bill.OrganizerID, Amount: p.Debt})
			}
		}
		return plan
	}

	type position struct {
		userID string
		amount money.Money
	}
	var debtors, creditors []position
	for _, p := range bill.Participants {
		switch {
		case p.Balance.IsNegative():
			debtors = append(debtors, position{p.UserID, p.Balance.Neg()})
		case p.Balance.IsPositive():
			creditors = append(creditors, position{p.UserID, p.Balance})
		}
	}
	byAmount := func(ps []position) {
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].amount.Cmp(ps[j].amount) > 0 })
	}
	byAmount(debtors)
	byAmount(creditors)

	var plan []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := money.Min(debtors[i].amount, creditors[j].amount)
		if amount.IsPositive() {
			plan = append(plan, Transfer{From: debtors[i].userID, To: creditors[j].userID, Amount: amount})
		}

		debtors[i].amount = debtors[i].amount.Sub(amount)
		creditors[j].amount = creditors[j].amount.Sub(amount)

		// Move to next debtor/creditor once fully settled
		if debtors[i].amount.IsZero() {
			i++
		}
		if creditors[j].amount.IsZero() {
			j++
		}
	}
	return plan
}
