package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/ebills/internal/calculator"
	"github.com/mmynk/ebills/internal/editsession"
	"github.com/mmynk/ebills/internal/models"
	"github.com/mmynk/ebills/internal/money"
	"github.com/mmynk/ebills/internal/notify"
	"github.com/mmynk/ebills/internal/storage"
	"github.com/mmynk/ebills/pkg/api"
	"github.com/mmynk/ebills/pkg/api/apiconnect"
)

var _ apiconnect.BillServiceHandler = (*BillService)(nil)

// BillService implements the Connect BillService.
type BillService struct {
	store    storage.Store
	notifier notify.Notifier
}

// NewBillService creates a new BillService with the given storage backend.
func NewBillService(store storage.Store, notifier notify.Notifier) *BillService {
	return &BillService{store: store, notifier: notifier}
}

// CreateBill validates the organizer's input for the chosen scenario and
// persists the bill with its participants.
func (s *BillService) CreateBill(ctx context.Context, req *connect.Request[api.CreateBillRequest]) (*connect.Response[api.CreateBillResponse], error) {
	session, err := callerSession(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateBill request received",
		"scenario", req.Msg.Scenario,
		"participants_count", len(req.Msg.Participants),
		"group_id", req.Msg.GroupID,
	)

	bill, err := s.buildBill(ctx, session.UserID, req.Msg)
	if err != nil {
		slog.Warn("CreateBill rejected", "error", err)
		return nil, toConnectError(err)
	}

	if err := s.store.CreateBill(ctx, bill); err != nil {
		slog.Error("CreateBill failed", "error", err)
		return nil, toConnectError(err)
	}

	recordHistory(ctx, s.store, bill.ID, session.UserID, models.ActionCreated,
		fmt.Sprintf("%s bill for %s", bill.Scenario, bill.TotalAmount))
	s.notify(ctx, notify.BillCreated, bill, session.UserID, participantIDs(bill)...)

	slog.Info("Bill created", "bill_id", bill.ID, "total", bill.TotalAmount.String())

	return connect.NewResponse(&api.CreateBillResponse{
		Bill: toAPIBill(bill, displayNames(ctx, s.store, bill)),
	}), nil
}

// buildBill turns a create request into a reconciled bill.
func (s *BillService) buildBill(ctx context.Context, organizerID string, msg *api.CreateBillRequest) (*models.Bill, error) {
	scenario := models.ScenarioKind(msg.Scenario)
	if !scenario.Valid() {
		return nil, invalidArgument("unknown scenario %q", msg.Scenario)
	}
	currency := money.NormalizeCurrency(msg.Currency)
	if !money.IsSupported(currency) {
		return nil, invalidArgument("unsupported currency %q", msg.Currency)
	}

	organizerAmount := money.Zero(currency)
	if strings.TrimSpace(msg.OrganizerAmount) != "" {
		parsed, err := money.Parse(msg.OrganizerAmount, currency)
		if err != nil {
			return nil, invalidArgument("organizerAmount: %v", err)
		}
		if parsed.IsNegative() {
			return nil, invalidArgument("organizerAmount must not be negative")
		}
		organizerAmount = parsed
	}
	return s.assemble(ctx, organizerID, scenario, currency, organizerAmount, msg)
}

func (s *BillService) assemble(ctx context.Context, organizerID string, scenario models.ScenarioKind, currency string, organizerAmount money.Money, msg *api.CreateBillRequest) (*models.Bill, error) {
	if scenario != models.IndividualAmounts && !organizerAmount.IsPositive() {
		return nil, invalidArgument("organizerAmount must be greater than zero for %s bills", scenario)
	}

	inputs, err := s.collectParticipants(ctx, organizerID, msg)
	if err != nil {
		return nil, err
	}

	bill := &models.Bill{
		Name:        strings.TrimSpace(msg.Name),
		Description: strings.TrimSpace(msg.Description),
		Scenario:    scenario,
		Currency:    currency,
		TotalAmount: money.Zero(currency),
		Status:      models.BillOpen,
		OrganizerID: organizerID,
		GroupID:     msg.GroupID,
	}

	switch scenario {
	case models.EqualSplit:
		bill.TotalAmount = organizerAmount
	case models.IndividualAmounts:
		bill.Participants = append(bill.Participants, models.Participant{
			UserID:   organizerID,
			Assigned: organizerAmount,
			IsAdmin:  true,
		})
	case models.SharedExpenses:
		bill.Participants = append(bill.Participants, models.Participant{
			UserID:  organizerID,
			Spent:   organizerAmount,
			IsAdmin: true,
		})
	}

	for _, in := range inputs {
		p := models.Participant{UserID: in.UserID, Paid: money.Zero(currency)}
		amt := money.Zero(currency)
		if strings.TrimSpace(in.Amount) != "" {
			amt, err = money.Parse(in.Amount, currency)
			if err != nil {
				return nil, invalidArgument("amount for %s: %v", in.UserID, err)
			}
		}
		switch scenario {
		case models.IndividualAmounts:
			if !amt.IsPositive() {
				return nil, invalidArgument("amount for %s must be greater than zero", in.UserID)
			}
			p.Assigned = amt
		case models.SharedExpenses:
			if amt.IsNegative() {
				return nil, invalidArgument("amount for %s must not be negative", in.UserID)
			}
			p.Spent = amt
		}
		bill.Participants = append(bill.Participants, p)
	}

	if _, err := calculator.Reconcile(bill); err != nil {
		return nil, err
	}
	if !bill.TotalAmount.IsPositive() {
		return nil, invalidArgument("bill total must be greater than zero")
	}
	return bill, nil
}

// collectParticipants merges the explicit participants with the members of
// msg.GroupID. The organizer and duplicates are dropped; every user must exist.
func (s *BillService) collectParticipants(ctx context.Context, organizerID string, msg *api.CreateBillRequest) ([]api.ParticipantInput, error) {
	var inputs []api.ParticipantInput
	seen := map[string]bool{organizerID: true}

	for _, in := range msg.Participants {
		in.UserID = strings.TrimSpace(in.UserID)
		if in.UserID == "" {
			return nil, invalidArgument("participant without userId")
		}
		if seen[in.UserID] {
			continue
		}
		seen[in.UserID] = true
		inputs = append(inputs, in)
	}

	if msg.GroupID != "" {
		group, err := s.store.GetGroup(ctx, msg.GroupID)
		if err != nil {
			return nil, err
		}
		if !group.HasMember(organizerID) {
			return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("you are not a member of group %s", group.Name))
		}
		for _, member := range group.Members {
			if !seen[member] {
				seen[member] = true
				inputs = append(inputs, api.ParticipantInput{UserID: member})
			}
		}
	}

	if len(inputs) == 0 {
		return nil, invalidArgument("a bill needs at least one participant besides the organizer")
	}

	ids := make([]string, len(inputs))
	for i, in := range inputs {
		ids[i] = in.UserID
	}
	if err := requireUsers(ctx, s.store, ids); err != nil {
		return nil, err
	}
	return inputs, nil
}

// GetBill returns a bill with derived amounts and a suggested settlement plan.
func (s *BillService) GetBill(ctx context.Context, req *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error) {
	session, err := callerSession(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("GetBill request received", "bill_id", req.Msg.BillID)

	bill, err := loadMemberBill(ctx, s.store, req.Msg.BillID, session.UserID)
	if err != nil {
		slog.Warn("GetBill failed", "bill_id", req.Msg.BillID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetBillResponse{
		Bill: toAPIBill(bill, displayNames(ctx, s.store, bill)),
		Plan: toAPITransfers(calculator.SettlementPlan(bill)),
	}), nil
}

// ListBills returns the caller's bills, newest first.
func (s *BillService) ListBills(ctx context.Context, req *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error) {
	session, err := callerSession(ctx)
	if err != nil {
		return nil, err
	}
	status := models.BillStatus(req.Msg.Status)
	if status != "" && status != models.BillOpen && status != models.BillClosed {
		return nil, invalidArgument("unknown status %q", req.Msg.Status)
	}

	bills, err := s.store.ListBillsForUser(ctx, session.UserID)
	if err != nil {
		slog.Error("ListBills failed", "error", err)
		return nil, toConnectError(err)
	}

	kept := bills[:0]
	for _, bill := range bills {
		if status != "" && bill.Status != status {
			continue
		}
		if _, err := calculator.Reconcile(bill); err != nil {
			slog.Error("Skipping bill that does not reconcile", "bill_id", bill.ID, "error", err)
			continue
		}
		kept = append(kept, bill)
	}

	names := displayNames(ctx, s.store, kept...)
	out := make([]api.Bill, len(kept))
	for i, bill := range kept {
		out[i] = toAPIBill(bill, names)
	}

	slog.Info("ListBills successful", "count", len(out))
	return connect.NewResponse(&api.ListBillsResponse{Bills: out}), nil
}

// UpdateBill applies a batch of edits through an edit session and persists
// only what changed. Version must match the stored bill when set.
func (s *BillService) UpdateBill(ctx context.Context, req *connect.Request[api.UpdateBillRequest]) (*connect.Response[api.UpdateBillResponse], error) {
	msg := req.Msg
	slog.Info("UpdateBill request received",
		"bill_id", msg.BillID,
		"version", msg.Version,
		"add_count", len(msg.AddUserIDs),
		"remove_count", len(msg.RemoveParticipantIDs),
		"edit_count", len(msg.Edits),
	)

	if len(msg.AddUserIDs) > 0 {
		if err := requireUsers(ctx, s.store, msg.AddUserIDs); err != nil {
			return nil, toConnectError(err)
		}
	}

	bill, warnings, err := s.edit(ctx, msg.BillID, msg.Version, func(sess *billEditor, currency string) error {
		for _, id := range msg.RemoveParticipantIDs {
			if err := sess.RemoveParticipant(id); err != nil {
				return err
			}
		}
		for _, id := range msg.AddUserIDs {
			if err := sess.AddParticipant(id); err != nil {
				return err
			}
		}
		for _, e := range msg.Edits {
			value, err := money.Parse(e.Value, currency)
			if err != nil {
				return &calculator.ValidationError{Field: e.Field, Reason: err.Error()}
			}
			if err := sess.SetField(e.Ref, calculator.Field(e.Field), value); err != nil {
				return err
			}
		}
		if msg.Name != nil {
			if err := sess.SetMeta(editsession.MetaName, *msg.Name); err != nil {
				return err
			}
		}
		if msg.Description != nil {
			if err := sess.SetMeta(editsession.MetaDescription, *msg.Description); err != nil {
				return err
			}
		}
		if msg.TotalAmount != nil {
			if err := sess.SetMeta(editsession.MetaTotalAmount, *msg.TotalAmount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		slog.Warn("UpdateBill failed", "bill_id", msg.BillID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.UpdateBillResponse{
		Bill:     toAPIBill(bill, displayNames(ctx, s.store, bill)),
		Warnings: toAPIWarnings(warnings),
	}), nil
}

// AddParticipants adds users to a bill with zero amounts.
func (s *BillService) AddParticipants(ctx context.Context, req *connect.Request[api.AddParticipantsRequest]) (*connect.Response[api.AddParticipantsResponse], error) {
	slog.Info("AddParticipants request received", "bill_id", req.Msg.BillID, "count", len(req.Msg.UserIDs))

	if len(req.Msg.UserIDs) == 0 {
		return nil, invalidArgument("userIds is required")
	}
	if err := requireUsers(ctx, s.store, req.Msg.UserIDs); err != nil {
		return nil, toConnectError(err)
	}

	bill, _, err := s.edit(ctx, req.Msg.BillID, 0, func(sess *billEditor, _ string) error {
		for _, id := range req.Msg.UserIDs {
			if err := sess.AddParticipant(id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		slog.Warn("AddParticipants failed", "bill_id", req.Msg.BillID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.AddParticipantsResponse{
		Bill: toAPIBill(bill, displayNames(ctx, s.store, bill)),
	}), nil
}

// RemoveParticipant removes one participant from a bill.
func (s *BillService) RemoveParticipant(ctx context.Context, req *connect.Request[api.RemoveParticipantRequest]) (*connect.Response[api.RemoveParticipantResponse], error) {
	slog.Info("RemoveParticipant request received", "bill_id", req.Msg.BillID, "participant_id", req.Msg.ParticipantID)

	bill, _, err := s.edit(ctx, req.Msg.BillID, 0, func(sess *billEditor, _ string) error {
		return sess.RemoveParticipant(req.Msg.ParticipantID)
	})
	if err != nil {
		slog.Warn("RemoveParticipant failed", "bill_id", req.Msg.BillID, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.RemoveParticipantResponse{
		Bill: toAPIBill(bill, displayNames(ctx, s.store, bill)),
	}), nil
}

// edit runs apply inside an edit session on the stored bill, commits the
// resulting change set and returns the reloaded bill together with any
// clamping warnings raised along the way.
func (s *BillService) edit(ctx context.Context, billID string, version int64, apply func(sess *billEditor, currency string) error) (*models.Bill, []calculator.ClampedWarning, error) {
	session, err := callerSession(ctx)
	if err != nil {
		return nil, nil, err
	}

	bill, err := loadBill(ctx, s.store, billID)
	if err != nil {
		return nil, nil, err
	}
	if version > 0 && bill.Version != version {
		return nil, nil, fmt.Errorf("bill %s is at version %d, not %d: %w", billID, bill.Version, version, storage.ErrVersionConflict)
	}
	if !bill.IsMember(session.UserID) {
		return nil, nil, errNotMember
	}
	if !bill.IsOpen() {
		return nil, nil, errBillClosed
	}
	if !bill.CanEdit(session.UserID) {
		return nil, nil, errNotEditor
	}

	sess := &billEditor{Session: editsession.New()}
	if err := sess.Begin(bill); err != nil {
		return nil, nil, err
	}
	sess.collect()

	if err := apply(sess, bill.Currency); err != nil {
		sess.Cancel()
		return nil, nil, err
	}

	changes := sess.Diff()
	if changes.IsEmpty() {
		sess.Cancel()
		return bill, sess.warnings, nil
	}

	// The whole change set is written at the version it was computed from,
	// or not at all.
	err = s.store.EditBill(ctx, billID, bill.Version, func(p editsession.Persister) error {
		_, err := sess.Commit(ctx, p)
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("bill %s was not saved: %w", billID, err)
	}
	s.recordChanges(ctx, bill, session.UserID, changes)

	updated, err := loadBill(ctx, s.store, billID)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("Bill updated", "bill_id", billID, "version", updated.Version)
	return updated, sess.warnings, nil
}

// billEditor is an edit session that keeps the clamping warnings of every
// mutation, not just the latest one.
type billEditor struct {
	*editsession.Session
	warnings []calculator.ClampedWarning
}

func (e *billEditor) collect() {
	e.warnings = append(e.warnings, e.Session.Warnings()...)
}

func (e *billEditor) AddParticipant(userID string) error {
	if err := e.Session.AddParticipant(userID); err != nil {
		return err
	}
	e.collect()
	return nil
}

func (e *billEditor) SetField(ref string, field calculator.Field, value money.Money) error {
	if err := e.Session.SetField(ref, field, value); err != nil {
		return err
	}
	e.collect()
	return nil
}

func (e *billEditor) SetMeta(field editsession.MetaField, value string) error {
	if err := e.Session.SetMeta(field, value); err != nil {
		return err
	}
	e.collect()
	return nil
}

// recordChanges writes history and notifications for a committed change set.
func (s *BillService) recordChanges(ctx context.Context, before *models.Bill, actorID string, changes editsession.ChangeSet) {
	var removedUsers []string
	for _, id := range changes.Removed {
		userID := id
		if i := before.ParticipantIndex(id); i >= 0 {
			userID = before.Participants[i].UserID
		}
		removedUsers = append(removedUsers, userID)
		recordHistory(ctx, s.store, before.ID, actorID, models.ActionParticipantRemoved, userID)
	}

	var addedUsers []string
	if len(changes.Added) > 0 {
		addedUsers = changes.AddedUserIDs()
		recordHistory(ctx, s.store, before.ID, actorID, models.ActionParticipantAdded, strings.Join(addedUsers, ","))
	}

	for _, u := range changes.Updated {
		recordHistory(ctx, s.store, before.ID, actorID, models.ActionParticipantUpdated, describeDelta(u.UserID, u.Fields))
	}

	metaChanged := !changes.Meta.IsEmpty()
	if metaChanged {
		recordHistory(ctx, s.store, before.ID, actorID, models.ActionMetaUpdated, describeMeta(changes.Meta))
	}

	if len(addedUsers) > 0 {
		s.notify(ctx, notify.ParticipantsAdded, before, actorID, addedUsers...)
	}
	if len(removedUsers) > 0 {
		s.notify(ctx, notify.ParticipantsRemoved, before, actorID, removedUsers...)
	}
	if len(changes.Updated) > 0 || metaChanged {
		s.notify(ctx, notify.BillUpdated, before, actorID, append(participantIDs(before), before.OrganizerID)...)
	}
}

func describeDelta(userID string, d editsession.ParticipantDelta) string {
	parts := []string{userID}
	if d.Assigned != nil {
		parts = append(parts, "assigned="+amount(*d.Assigned))
	}
	if d.Paid != nil {
		parts = append(parts, "paid="+amount(*d.Paid))
	}
	if d.Spent != nil {
		parts = append(parts, "spent="+amount(*d.Spent))
	}
	return strings.Join(parts, " ")
}

func describeMeta(d editsession.MetaDelta) string {
	var parts []string
	if d.Name != nil {
		parts = append(parts, "name="+*d.Name)
	}
	if d.Description != nil {
		parts = append(parts, "description changed")
	}
	if d.TotalAmount != nil {
		parts = append(parts, "total="+amount(*d.TotalAmount))
	}
	return strings.Join(parts, " ")
}

// UpdateEditorRights lets the organizer grant or revoke editing rights.
func (s *BillService) UpdateEditorRights(ctx context.Context, req *connect.Request[api.UpdateEditorRightsRequest]) (*connect.Response[api.UpdateEditorRightsResponse], error) {
	session, err := callerSession(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("UpdateEditorRights request received",
		"bill_id", req.Msg.BillID,
		"participant_id", req.Msg.ParticipantID,
		"is_editor", req.Msg.IsEditor,
	)

	bill, err := s.organizerBill(ctx, req.Msg.BillID, session.UserID)
	if err != nil {
		return nil, toConnectError(err)
	}
	i := bill.ParticipantIndex(req.Msg.ParticipantID)
	if i < 0 {
		return nil, toConnectError(editsession.ErrParticipantNotFound)
	}
	if bill.Participants[i].IsAdmin {
		return nil, invalidArgument("the organizer always has editing rights")
	}

	if err := s.store.SetEditor(ctx, bill.ID, req.Msg.ParticipantID, req.Msg.IsEditor); err != nil {
		slog.Error("UpdateEditorRights failed", "bill_id", bill.ID, "error", err)
		return nil, toConnectError(err)
	}
	recordHistory(ctx, s.store, bill.ID, session.UserID, models.ActionEditorRights,
		fmt.Sprintf("%s editor=%t", bill.Participants[i].UserID, req.Msg.IsEditor))

	updated, err := loadBill(ctx, s.store, bill.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.UpdateEditorRightsResponse{
		Bill: toAPIBill(updated, displayNames(ctx, s.store, updated)),
	}), nil
}

// CloseBill closes a fully settled bill. Closed bills accept no more edits
// or payments.
func (s *BillService) CloseBill(ctx context.Context, req *connect.Request[api.CloseBillRequest]) (*connect.Response[api.CloseBillResponse], error) {
	session, err := callerSession(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CloseBill request received", "bill_id", req.Msg.BillID)

	bill, err := s.organizerBill(ctx, req.Msg.BillID, session.UserID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !bill.IsOpen() {
		return nil, toConnectError(errBillClosed)
	}
	if bill.Settlement != models.FullySettled {
		return nil, connect.NewError(connect.CodeFailedPrecondition,
			fmt.Errorf("bill is %s; only fully settled bills can be closed", bill.Settlement))
	}

	if err := s.store.SetBillStatus(ctx, bill.ID, models.BillClosed); err != nil {
		slog.Error("CloseBill failed", "bill_id", bill.ID, "error", err)
		return nil, toConnectError(err)
	}
	recordHistory(ctx, s.store, bill.ID, session.UserID, models.ActionClosed, "")
	s.notify(ctx, notify.BillClosed, bill, session.UserID, participantIDs(bill)...)

	updated, err := loadBill(ctx, s.store, bill.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("Bill closed", "bill_id", bill.ID)
	return connect.NewResponse(&api.CloseBillResponse{
		Bill: toAPIBill(updated, displayNames(ctx, s.store, updated)),
	}), nil
}

// DeleteBill removes a bill and everything attached to it.
func (s *BillService) DeleteBill(ctx context.Context, req *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error) {
	session, err := callerSession(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("DeleteBill request received", "bill_id", req.Msg.BillID)

	bill, err := s.organizerBill(ctx, req.Msg.BillID, session.UserID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.store.DeleteBill(ctx, bill.ID); err != nil {
		slog.Error("DeleteBill failed", "bill_id", bill.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Bill deleted", "bill_id", bill.ID)
	return connect.NewResponse(&api.DeleteBillResponse{}), nil
}

// GetHistory returns a bill's audit trail, oldest first.
func (s *BillService) GetHistory(ctx context.Context, req *connect.Request[api.GetHistoryRequest]) (*connect.Response[api.GetHistoryResponse], error) {
	session, err := callerSession(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := loadMemberBill(ctx, s.store, req.Msg.BillID, session.UserID); err != nil {
		return nil, toConnectError(err)
	}

	entries, err := s.store.ListHistory(ctx, req.Msg.BillID)
	if err != nil {
		slog.Error("GetHistory failed", "bill_id", req.Msg.BillID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]api.HistoryEntry, len(entries))
	for i, e := range entries {
		out[i] = api.HistoryEntry{
			ID:        e.ID,
			ActorID:   e.ActorID,
			Action:    string(e.Action),
			Details:   e.Details,
			CreatedAt: e.CreatedAt,
		}
	}
	return connect.NewResponse(&api.GetHistoryResponse{Entries: out}), nil
}

// GetMyBalances sums the caller's position over their open bills, per currency.
func (s *BillService) GetMyBalances(ctx context.Context, req *connect.Request[api.GetMyBalancesRequest]) (*connect.Response[api.GetMyBalancesResponse], error) {
	session, err := callerSession(ctx)
	if err != nil {
		return nil, err
	}

	bills, err := s.store.ListBillsForUser(ctx, session.UserID)
	if err != nil {
		slog.Error("GetMyBalances failed", "error", err)
		return nil, toConnectError(err)
	}

	balances, err := calculator.SummarizeUserBalances(bills, session.UserID)
	if err != nil {
		slog.Error("GetMyBalances failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]api.Balance, len(balances))
	for i, b := range balances {
		out[i] = api.Balance{
			Currency: b.Currency,
			Owes:     amount(b.Owes),
			Owed:     amount(b.Owed),
			Net:      amount(b.Net),
			Bills:    b.Bills,
		}
	}
	return connect.NewResponse(&api.GetMyBalancesResponse{Balances: out}), nil
}

// organizerBill loads a bill the caller organizes.
func (s *BillService) organizerBill(ctx context.Context, billID, userID string) (*models.Bill, error) {
	bill, err := loadMemberBill(ctx, s.store, billID, userID)
	if err != nil {
		return nil, err
	}
	if bill.OrganizerID != userID {
		return nil, errNotOrganizer
	}
	return bill, nil
}

func (s *BillService) notify(ctx context.Context, kind notify.Kind, bill *models.Bill, actorID string, userIDs ...string) {
	err := s.notifier.Notify(ctx, notify.Event{
		Kind:       kind,
		BillID:     bill.ID,
		BillName:   bill.Name,
		ActorID:    actorID,
		Recipients: notify.Recipients(actorID, userIDs...),
		Amount:     amount(bill.TotalAmount),
		Currency:   bill.Currency,
	})
	if err != nil {
		slog.Warn("Failed to send notification", "kind", kind, "bill_id", bill.ID, "error", err)
	}
}
