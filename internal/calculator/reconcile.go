package calculator

import (
	"github.com/mmynk/ebills/internal/models"
	"github.com/mmynk/ebills/internal/money"
)

// Result reports what Reconcile derived beyond the bill's own fields.
type Result struct {
	Settlement models.SettlementState
	Warnings   []ClampedWarning
}

// Reconcile recomputes every derived field of bill from its raw inputs:
// participant shares, balances, debts and statuses, the bill total, and the
// settlement state. It must run after every change to participants or totals.
//
// Reconcile is idempotent. It never touches the bill status, ids, user ids or
// admin/editor flags. On error the bill is left exactly as it was.
func Reconcile(bill *models.Bill) (Result, error) {
	policy, err := PolicyFor(bill.Scenario)
	if err != nil {
		return Result{}, err
	}
	out, err := ComputeAssignedAndDebt(bill)
	if err != nil {
		return Result{}, err
	}

	for i := range out.Participants {
		p := &out.Participants[i]
		p.Status = participantStatus(p.Assigned, policy.EffectivePaid(*p), p.Debt)
	}

	for i := range bill.Participants {
		src := out.Participants[i]
		dst := &bill.Participants[i]
		dst.Assigned = src.Assigned
		dst.Paid = src.Paid
		dst.Spent = src.Spent
		dst.Balance = src.Balance
		dst.Debt = src.Debt
		dst.Status = src.Status
	}
	bill.TotalAmount = out.Total
	bill.Settlement = settlementState(policy, bill.Participants)

	return Result{Settlement: bill.Settlement, Warnings: out.Warnings}, nil
}

// participantStatus: Paid once nothing is owed on a real share, Unpaid while
// nothing has been paid, PartiallyPaid in between.
func participantStatus(assigned, effectivePaid, debt money.Money) models.ParticipantStatus {
	switch {
	case debt.IsZero() && assigned.IsPositive():
		return models.Paid
	case effectivePaid.IsZero():
		return models.Unpaid
	default:
		return models.PartiallyPaid
	}
}

// settlementState folds participant statuses into the bill-level view.
// Rows with nothing at stake (zero share, nothing paid) are ignored.
func settlementState(policy Policy, participants []models.Participant) models.SettlementState {
	counted, paid := 0, 0
	for _, p := range participants {
		if p.Assigned.IsZero() && policy.EffectivePaid(p).IsZero() {
			continue
		}
		counted++
		switch p.Status {
		case models.PartiallyPaid:
			return models.PartiallySettled
		case models.Paid:
			paid++
		}
	}
	if counted > 0 && paid == counted {
		return models.FullySettled
	}
	return models.Unsettled
}
