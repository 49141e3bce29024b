package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/ebills/pkg/api"
)

// BillServiceName is the fully-qualified name of the BillService service.
const BillServiceName = "ebills.v1.BillService"

// These constants are the fully-qualified names of the RPCs defined in this
// package. They're exposed at runtime as Spec.Procedure and as the final two
// segments of the HTTP route.
const (
	// BillServiceCreateBillProcedure is the fully-qualified name of the BillService's CreateBill RPC.
	BillServiceCreateBillProcedure = "/ebills.v1.BillService/CreateBill"
	// BillServiceGetBillProcedure is the fully-qualified name of the BillService's GetBill RPC.
	BillServiceGetBillProcedure = "/ebills.v1.BillService/GetBill"
	// BillServiceListBillsProcedure is the fully-qualified name of the BillService's ListBills RPC.
	BillServiceListBillsProcedure = "/ebills.v1.BillService/ListBills"
	// BillServiceUpdateBillProcedure is the fully-qualified name of the BillService's UpdateBill RPC.
	BillServiceUpdateBillProcedure = "/ebills.v1.BillService/UpdateBill"
	// BillServiceAddParticipantsProcedure is the fully-qualified name of the BillService's AddParticipants RPC.
	BillServiceAddParticipantsProcedure = "/ebills.v1.BillService/AddParticipants"
	// BillServiceRemoveParticipantProcedure is the fully-qualified name of the BillService's RemoveParticipant RPC.
	BillServiceRemoveParticipantProcedure = "/ebills.v1.BillService/RemoveParticipant"
	// BillServiceUpdateEditorRightsProcedure is the fully-qualified name of the BillService's UpdateEditorRights RPC.
	BillServiceUpdateEditorRightsProcedure = "/ebills.v1.BillService/UpdateEditorRights"
	// BillServiceCloseBillProcedure is the fully-qualified name of the BillService's CloseBill RPC.
	BillServiceCloseBillProcedure = "/ebills.v1.BillService/CloseBill"
	// BillServiceDeleteBillProcedure is the fully-qualified name of the BillService's DeleteBill RPC.
	BillServiceDeleteBillProcedure = "/ebills.v1.BillService/DeleteBill"
	// BillServiceGetHistoryProcedure is the fully-qualified name of the BillService's GetHistory RPC.
	BillServiceGetHistoryProcedure = "/ebills.v1.BillService/GetHistory"
	// BillServiceGetMyBalancesProcedure is the fully-qualified name of the BillService's GetMyBalances RPC.
	BillServiceGetMyBalancesProcedure = "/ebills.v1.BillService/GetMyBalances"
)

// BillServiceClient is a client for the ebills.v1.BillService service.
type BillServiceClient interface {
	CreateBill(context.Context, *connect.Request[api.CreateBillRequest]) (*connect.Response[api.CreateBillResponse], error)
	GetBill(context.Context, *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error)
	ListBills(context.Context, *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error)
	UpdateBill(context.Context, *connect.Request[api.UpdateBillRequest]) (*connect.Response[api.UpdateBillResponse], error)
	AddParticipants(context.Context, *connect.Request[api.AddParticipantsRequest]) (*connect.Response[api.AddParticipantsResponse], error)
	RemoveParticipant(context.Context, *connect.Request[api.RemoveParticipantRequest]) (*connect.Response[api.RemoveParticipantResponse], error)
	UpdateEditorRights(context.Context, *connect.Request[api.UpdateEditorRightsRequest]) (*connect.Response[api.UpdateEditorRightsResponse], error)
	CloseBill(context.Context, *connect.Request[api.CloseBillRequest]) (*connect.Response[api.CloseBillResponse], error)
	DeleteBill(context.Context, *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error)
	GetHistory(context.Context, *connect.Request[api.GetHistoryRequest]) (*connect.Response[api.GetHistoryResponse], error)
	GetMyBalances(context.Context, *connect.Request[api.GetMyBalancesRequest]) (*connect.Response[api.GetMyBalancesResponse], error)
}

// NewBillServiceClient constructs a client for the ebills.v1.BillService service.
// The JSON codec is always used.
//
// The URL supplied here should be the base URL for the Connect server
// (for example, http://api.acme.com or https://acme.com/grpc).
func NewBillServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) BillServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
	return &billServiceClient{
		createBill: connect.NewClient[api.CreateBillRequest, api.CreateBillResponse](
			httpClient,
			baseURL+BillServiceCreateBillProcedure,
			opts...,
		),
		getBill: connect.NewClient[api.GetBillRequest, api.GetBillResponse](
			httpClient,
			baseURL+BillServiceGetBillProcedure,
			opts...,
		),
		listBills: connect.NewClient[api.ListBillsRequest, api.ListBillsResponse](
			httpClient,
			baseURL+BillServiceListBillsProcedure,
			opts...,
		),
		updateBill: connect.NewClient[api.UpdateBillRequest, api.UpdateBillResponse](
			httpClient,
			baseURL+BillServiceUpdateBillProcedure,
			opts...,
		),
		addParticipants: connect.NewClient[api.AddParticipantsRequest, api.AddParticipantsResponse](
			httpClient,
			baseURL+BillServiceAddParticipantsProcedure,
			opts...,
		),
		removeParticipant: connect.NewClient[api.RemoveParticipantRequest, api.RemoveParticipantResponse](
			httpClient,
			baseURL+BillServiceRemoveParticipantProcedure,
			opts...,
		),
		updateEditorRights: connect.NewClient[api.UpdateEditorRightsRequest, api.UpdateEditorRightsResponse](
			httpClient,
			baseURL+BillServiceUpdateEditorRightsProcedure,
			opts...,
		),
		closeBill: connect.NewClient[api.CloseBillRequest, api.CloseBillResponse](
			httpClient,
			baseURL+BillServiceCloseBillProcedure,
			opts...,
		),
		deleteBill: connect.NewClient[api.DeleteBillRequest, api.DeleteBillResponse](
			httpClient,
			baseURL+BillServiceDeleteBillProcedure,
			opts...,
		),
		getHistory: connect.NewClient[api.GetHistoryRequest, api.GetHistoryResponse](
			httpClient,
			baseURL+BillServiceGetHistoryProcedure,
			opts...,
		),
		getMyBalances: connect.NewClient[api.GetMyBalancesRequest, api.GetMyBalancesResponse](
			httpClient,
			baseURL+BillServiceGetMyBalancesProcedure,
			opts...,
		),
	}
}

// billServiceClient implements BillServiceClient.
type billServiceClient struct {
	createBill         *connect.Client[api.CreateBillRequest, api.CreateBillResponse]
	getBill            *connect.Client[api.GetBillRequest, api.GetBillResponse]
	listBills          *connect.Client[api.ListBillsRequest, api.ListBillsResponse]
	updateBill         *connect.Client[api.UpdateBillRequest, api.UpdateBillResponse]
	addParticipants    *connect.Client[api.AddParticipantsRequest, api.AddParticipantsResponse]
	removeParticipant  *connect.Client[api.RemoveParticipantRequest, api.RemoveParticipantResponse]
	updateEditorRights *connect.Client[api.UpdateEditorRightsRequest, api.UpdateEditorRightsResponse]
	closeBill          *connect.Client[api.CloseBillRequest, api.CloseBillResponse]
	deleteBill         *connect.Client[api.DeleteBillRequest, api.DeleteBillResponse]
	getHistory         *connect.Client[api.GetHistoryRequest, api.GetHistoryResponse]
	getMyBalances      *connect.Client[api.GetMyBalancesRequest, api.GetMyBalancesResponse]
}

// CreateBill calls ebills.v1.BillService.CreateBill.
func (c *billServiceClient) CreateBill(ctx context.Context, req *connect.Request[api.CreateBillRequest]) (*connect.Response[api.CreateBillResponse], error) {
	return c.createBill.CallUnary(ctx, req)
}

// GetBill calls ebills.v1.BillService.GetBill.
func (c *billServiceClient) GetBill(ctx context.Context, req *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error) {
	return c.getBill.CallUnary(ctx, req)
}

// ListBills calls ebills.v1.BillService.ListBills.
func (c *billServiceClient) ListBills(ctx context.Context, req *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error) {
	return c.listBills.CallUnary(ctx, req)
}

// UpdateBill calls ebills.v1.BillService.UpdateBill.
func (c *billServiceClient) UpdateBill(ctx context.Context, req *connect.Request[api.UpdateBillRequest]) (*connect.Response[api.UpdateBillResponse], error) {
	return c.updateBill.CallUnary(ctx, req)
}

// AddParticipants calls ebills.v1.BillService.AddParticipants.
func (c *billServiceClient) AddParticipants(ctx context.Context, req *connect.Request[api.AddParticipantsRequest]) (*connect.Response[api.AddParticipantsResponse], error) {
	return c.addParticipants.CallUnary(ctx, req)
}

// RemoveParticipant calls ebills.v1.BillService.RemoveParticipant.
func (c *billServiceClient) RemoveParticipant(ctx context.Context, req *connect.Request[api.RemoveParticipantRequest]) (*connect.Response[api.RemoveParticipantResponse], error) {
	return c.removeParticipant.CallUnary(ctx, req)
}

// UpdateEditorRights calls ebills.v1.BillService.UpdateEditorRights.
func (c *billServiceClient) UpdateEditorRights(ctx context.Context, req *connect.Request[api.UpdateEditorRightsRequest]) (*connect.Response[api.UpdateEditorRightsResponse], error) {
	return c.updateEditorRights.CallUnary(ctx, req)
}

// CloseBill calls ebills.v1.BillService.CloseBill.
func (c *billServiceClient) CloseBill(ctx context.Context, req *connect.Request[api.CloseBillRequest]) (*connect.Response[api.CloseBillResponse], error) {
	return c.closeBill.CallUnary(ctx, req)
}

// DeleteBill calls ebills.v1.BillService.DeleteBill.
func (c *billServiceClient) DeleteBill(ctx context.Context, req *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error) {
	return c.deleteBill.CallUnary(ctx, req)
}

// GetHistory calls ebills.v1.BillService.GetHistory.
func (c *billServiceClient) GetHistory(ctx context.Context, req *connect.Request[api.GetHistoryRequest]) (*connect.Response[api.GetHistoryResponse], error) {
	return c.getHistory.CallUnary(ctx, req)
}

// GetMyBalances calls ebills.v1.BillService.GetMyBalances.
func (c *billServiceClient) GetMyBalances(ctx context.Context, req *connect.Request[api.GetMyBalancesRequest]) (*connect.Response[api.GetMyBalancesResponse], error) {
	return c.getMyBalances.CallUnary(ctx, req)
}

// BillServiceHandler is an implementation of the ebills.v1.BillService service.
// Bills, their participants and edit history.
type BillServiceHandler interface {
	CreateBill(context.Context, *connect.Request[api.CreateBillRequest]) (*connect.Response[api.CreateBillResponse], error)
	GetBill(context.Context, *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error)
	ListBills(context.Context, *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error)
	UpdateBill(context.Context, *connect.Request[api.UpdateBillRequest]) (*connect.Response[api.UpdateBillResponse], error)
	AddParticipants(context.Context, *connect.Request[api.AddParticipantsRequest]) (*connect.Response[api.AddParticipantsResponse], error)
	RemoveParticipant(context.Context, *connect.Request[api.RemoveParticipantRequest]) (*connect.Response[api.RemoveParticipantResponse], error)
	UpdateEditorRights(context.Context, *connect.Request[api.UpdateEditorRightsRequest]) (*connect.Response[api.UpdateEditorRightsResponse], error)
	CloseBill(context.Context, *connect.Request[api.CloseBillRequest]) (*connect.Response[api.CloseBillResponse], error)
	DeleteBill(context.Context, *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error)
	GetHistory(context.Context, *connect.Request[api.GetHistoryRequest]) (*connect.Response[api.GetHistoryResponse], error)
	GetMyBalances(context.Context, *connect.Request[api.GetMyBalancesRequest]) (*connect.Response[api.GetMyBalancesResponse], error)
}

// NewBillServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewBillServiceHandler(svc BillServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)
	createBillHandler := connect.NewUnaryHandler(
		BillServiceCreateBillProcedure,
		svc.CreateBill,
		opts...,
	)
	getBillHandler := connect.NewUnaryHandler(
		BillServiceGetBillProcedure,
		svc.GetBill,
		opts...,
	)
	listBillsHandler := connect.NewUnaryHandler(
		BillServiceListBillsProcedure,
		svc.ListBills,
		opts...,
	)
	updateBillHandler := connect.NewUnaryHandler(
		BillServiceUpdateBillProcedure,
		svc.UpdateBill,
		opts...,
	)
	addParticipantsHandler := connect.NewUnaryHandler(
		BillServiceAddParticipantsProcedure,
		svc.AddParticipants,
		opts...,
	)
	removeParticipantHandler := connect.NewUnaryHandler(
		BillServiceRemoveParticipantProcedure,
		svc.RemoveParticipant,
		opts...,
	)
	updateEditorRightsHandler := connect.NewUnaryHandler(
		BillServiceUpdateEditorRightsProcedure,
		svc.UpdateEditorRights,
		opts...,
	)
	closeBillHandler := connect.NewUnaryHandler(
		BillServiceCloseBillProcedure,
		svc.CloseBill,
		opts...,
	)
	deleteBillHandler := connect.NewUnaryHandler(
		BillServiceDeleteBillProcedure,
		svc.DeleteBill,
		opts...,
	)
	getHistoryHandler := connect.NewUnaryHandler(
		BillServiceGetHistoryProcedure,
		svc.GetHistory,
		opts...,
	)
	getMyBalancesHandler := connect.NewUnaryHandler(
		BillServiceGetMyBalancesProcedure,
		svc.GetMyBalances,
		opts...,
	)
	return "/ebills.v1.BillService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case BillServiceCreateBillProcedure:
			createBillHandler.ServeHTTP(w, r)
		case BillServiceGetBillProcedure:
			getBillHandler.ServeHTTP(w, r)
		case BillServiceListBillsProcedure:
			listBillsHandler.ServeHTTP(w, r)
		case BillServiceUpdateBillProcedure:
			updateBillHandler.ServeHTTP(w, r)
		case BillServiceAddParticipantsProcedure:
			addParticipantsHandler.ServeHTTP(w, r)
		case BillServiceRemoveParticipantProcedure:
			removeParticipantHandler.ServeHTTP(w, r)
		case BillServiceUpdateEditorRightsProcedure:
			updateEditorRightsHandler.ServeHTTP(w, r)
		case BillServiceCloseBillProcedure:
			closeBillHandler.ServeHTTP(w, r)
		case BillServiceDeleteBillProcedure:
			deleteBillHandler.ServeHTTP(w, r)
		case BillServiceGetHistoryProcedure:
			getHistoryHandler.ServeHTTP(w, r)
		case BillServiceGetMyBalancesProcedure:
			getMyBalancesHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
