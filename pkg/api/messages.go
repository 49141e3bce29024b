package api

// User is a registered account as seen by other users.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Phone       string `json:"phone,omitempty"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type RegisterResponse struct {
	User      User   `json:"user"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User      User   `json:"user"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User User `json:"user"`
}

// Participant is one row of a bill. Balance, Debt and Status are derived.
type Participant struct {
	ParticipantID string `json:"participantId"`
	UserID        string `json:"userId"`
	DisplayName   string `json:"displayName,omitempty"`
	Assigned      string `json:"assignedAmount"`
	Paid          string `json:"paidAmount"`
	Spent         string `json:"spent"`
	Balance       string `json:"balance"`
	Debt          string `json:"debt"`
	Status        string `json:"paymentStatus"`
	IsAdmin       bool   `json:"isAdmin"`
	IsEditor      bool   `json:"isEditor"`
}

type Bill struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Scenario     string        `json:"scenario"`
	Currency     string        `json:"currency"`
	TotalAmount  string        `json:"totalAmount"`
	Status       string        `json:"status"`
	Settlement   string        `json:"settlement"`
	OrganizerID  string        `json:"organizerId"`
	GroupID      string        `json:"groupId,omitempty"`
	Version      int64         `json:"version"`
	CreatedAt    int64         `json:"createdAt"`
	UpdatedAt    int64         `json:"updatedAt"`
	Participants []Participant `json:"participants"`
}

// Transfer is a suggested payment that settles part of a bill.
type Transfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// Warning reports a paid amount that was lowered to the participant's share.
type Warning struct {
	UserID    string `json:"userId"`
	Requested string `json:"requested"`
	Applied   string `json:"applied"`
	Message   string `json:"message"`
}

// ParticipantInput is a participant at creation time. Amount is the
// individual amount or the amount spent, depending on the scenario, and is
// ignored for equal split bills.
type ParticipantInput struct {
	UserID string `json:"userId"`
	Amount string `json:"amount,omitempty"`
}

type CreateBillRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Scenario    string `json:"scenario"`
	Currency    string `json:"currency"`
	// OrganizerAmount is the organizer's own spend: the bill total for equal
	// split, the organizer's own amount or their shared spend otherwise.
	OrganizerAmount string             `json:"organizerAmount"`
	Participants    []ParticipantInput `json:"participants"`
	GroupID         string             `json:"groupId,omitempty"`
}

type CreateBillResponse struct {
	Bill Bill `json:"bill"`
}

type GetBillRequest struct {
	BillID string `json:"billId"`
}

type GetBillResponse struct {
	Bill Bill       `json:"bill"`
	Plan []Transfer `json:"plan"`
}

type ListBillsRequest struct {
	// Status filters by "open" or "closed"; empty lists both.
	Status string `json:"status,omitempty"`
}

type ListBillsResponse struct {
	Bills []Bill `json:"bills"`
}

// FieldEdit changes one amount on a participant row, addressed by
// participant id or, for rows added in the same request, by user id.
type FieldEdit struct {
	Ref   string `json:"ref"`
	Field string `json:"field"`
	Value string `json:"value"`
}

type UpdateBillRequest struct {
	BillID string `json:"billId"`
	// Version is the bill version the edits were made against.
	Version              int64       `json:"version"`
	Name                 *string     `json:"name,omitempty"`
	Description          *string     `json:"description,omitempty"`
	TotalAmount          *string     `json:"totalAmount,omitempty"`
	AddUserIDs           []string    `json:"addUserIds,omitempty"`
	RemoveParticipantIDs []string    `json:"removeParticipantIds,omitempty"`
	Edits                []FieldEdit `json:"edits,omitempty"`
}

type UpdateBillResponse struct {
	Bill     Bill      `json:"bill"`
	Warnings []Warning `json:"warnings,omitempty"`
}

type AddParticipantsRequest struct {
	BillID  string   `json:"billId"`
	UserIDs []string `json:"userIds"`
}

type AddParticipantsResponse struct {
	Bill Bill `json:"bill"`
}

type RemoveParticipantRequest struct {
	BillID        string `json:"billId"`
	ParticipantID string `json:"participantId"`
}

type RemoveParticipantResponse struct {
	Bill Bill `json:"bill"`
}

type UpdateEditorRightsRequest struct {
	BillID        string `json:"billId"`
	ParticipantID string `json:"participantId"`
	IsEditor      bool   `json:"isEditor"`
}

type UpdateEditorRightsResponse struct {
	Bill Bill `json:"bill"`
}

type CloseBillRequest struct {
	BillID string `json:"billId"`
}

type CloseBillResponse struct {
	Bill Bill `json:"bill"`
}

type DeleteBillRequest struct {
	BillID string `json:"billId"`
}

type DeleteBillResponse struct{}

type HistoryEntry struct {
	ID        int64  `json:"id"`
	ActorID   string `json:"actorId"`
	Action    string `json:"action"`
	Details   string `json:"details,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

type GetHistoryRequest struct {
	BillID string `json:"billId"`
}

type GetHistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// Balance is the caller's position across open bills in one currency.
type Balance struct {
	Currency string `json:"currency"`
	Owes     string `json:"owes"`
	Owed     string `json:"owed"`
	Net      string `json:"net"`
	Bills    int    `json:"bills"`
}

type GetMyBalancesRequest struct{}

type GetMyBalancesResponse struct {
	Balances []Balance `json:"balances"`
}

type Comment struct {
	ID         string `json:"id"`
	BillID     string `json:"billId"`
	AuthorID   string `json:"authorId"`
	AuthorName string `json:"authorName,omitempty"`
	Text       string `json:"text"`
	CreatedAt  int64  `json:"createdAt"`
}

type ListCommentsRequest struct {
	BillID string `json:"billId"`
}

type ListCommentsResponse struct {
	Comments []Comment `json:"comments"`
}

type CreateCommentRequest struct {
	BillID string `json:"billId"`
	Text   string `json:"text"`
}

type CreateCommentResponse struct {
	Comment Comment `json:"comment"`
}

type GroupMember struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
}

type Group struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	OwnerID   string        `json:"ownerId"`
	Members   []GroupMember `json:"members"`
	CreatedAt int64         `json:"createdAt"`
}

type CreateGroupRequest struct {
	Name      string   `json:"name"`
	MemberIDs []string `json:"memberIds"`
}

type CreateGroupResponse struct {
	Group Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupResponse struct {
	Group Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []Group `json:"groups"`
}

type AddGroupMembersRequest struct {
	GroupID string   `json:"groupId"`
	UserIDs []string `json:"userIds"`
}

type AddGroupMembersResponse struct {
	Group Group `json:"group"`
}

type Payment struct {
	ID            string `json:"id"`
	BillID        string `json:"billId"`
	ParticipantID string `json:"participantId"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	Credited      string `json:"credited,omitempty"` // part of Amount applied to the debt
	Reference     string `json:"reference,omitempty"`
	CreatedAt     int64  `json:"createdAt"`
	CompletedAt   int64  `json:"completedAt,omitempty"`
}

type CreatePaymentRequest struct {
	BillID string `json:"billId"`
	// Amount defaults to the caller's whole debt.
	Amount string `json:"amount,omitempty"`
}

// CreatePaymentResponse carries the opaque checkout payload for the
// payment page: base64 JSON data and its signature.
type CreatePaymentResponse struct {
	Payment     Payment `json:"payment"`
	CheckoutURL string  `json:"checkoutUrl"`
	Data        string  `json:"data"`
	Signature   string  `json:"signature"`
}

// ConfirmPaymentRequest is the gateway callback, forwarded by the client
// or posted by the gateway itself.
type ConfirmPaymentRequest struct {
	Data      string `json:"data"`
	Signature string `json:"signature"`
}

type ConfirmPaymentResponse struct {
	Payment Payment `json:"payment"`
	Bill    Bill    `json:"bill"`
}

type ListMyPaymentsRequest struct{}

type ListMyPaymentsResponse struct {
	Payments []Payment `json:"payments"`
}
