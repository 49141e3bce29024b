package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/ebills/pkg/api"
)

// PaymentServiceName is the fully-qualified name of the PaymentService service.
const PaymentServiceName = "ebills.v1.PaymentService"

// These constants are the fully-qualified names of the RPCs defined in this
// package. They're exposed at runtime as Spec.Procedure and as the final two
// segments of the HTTP route.
const (
	// PaymentServiceCreatePaymentProcedure is the fully-qualified name of the PaymentService's CreatePayment RPC.
	PaymentServiceCreatePaymentProcedure = "/ebills.v1.PaymentService/CreatePayment"
	// PaymentServiceConfirmPaymentProcedure is the fully-qualified name of the PaymentService's ConfirmPayment RPC.
	PaymentServiceConfirmPaymentProcedure = "/ebills.v1.PaymentService/ConfirmPayment"
	// PaymentServiceListMyPaymentsProcedure is the fully-qualified name of the PaymentService's ListMyPayments RPC.
	PaymentServiceListMyPaymentsProcedure = "/ebills.v1.PaymentService/ListMyPayments"
)

// PaymentServiceClient is a client for the ebills.v1.PaymentService service.
type PaymentServiceClient interface {
	CreatePayment(context.Context, *connect.Request[api.CreatePaymentRequest]) (*connect.Response[api.CreatePaymentResponse], error)
	ConfirmPayment(context.Context, *connect.Request[api.ConfirmPaymentRequest]) (*connect.Response[api.ConfirmPaymentResponse], error)
	ListMyPayments(context.Context, *connect.Request[api.ListMyPaymentsRequest]) (*connect.Response[api.ListMyPaymentsResponse], error)
}

// NewPaymentServiceClient constructs a client for the ebills.v1.PaymentService service.
// The JSON codec is always used.
//
// The URL supplied here should be the base URL for the Connect server
// (for example, http://api.acme.com or https://acme.com/grpc).
func NewPaymentServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) PaymentServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
	return &paymentServiceClient{
		createPayment: connect.NewClient[api.CreatePaymentRequest, api.CreatePaymentResponse](
			httpClient,
			baseURL+PaymentServiceCreatePaymentProcedure,
			opts...,
		),
		confirmPayment: connect.NewClient[api.ConfirmPaymentRequest, api.ConfirmPaymentResponse](
			httpClient,
			baseURL+PaymentServiceConfirmPaymentProcedure,
			opts...,
		),
		listMyPayments: connect.NewClient[api.ListMyPaymentsRequest, api.ListMyPaymentsResponse](
			httpClient,
			baseURL+PaymentServiceListMyPaymentsProcedure,
			opts...,
		),
	}
}

// paymentServiceClient implements PaymentServiceClient.
type paymentServiceClient struct {
	createPayment  *connect.Client[api.CreatePaymentRequest, api.CreatePaymentResponse]
	confirmPayment *connect.Client[api.ConfirmPaymentRequest, api.ConfirmPaymentResponse]
	listMyPayments *connect.Client[api.ListMyPaymentsRequest, api.ListMyPaymentsResponse]
}

// CreatePayment calls ebills.v1.PaymentService.CreatePayment.
func (c *paymentServiceClient) CreatePayment(ctx context.Context, req *connect.Request[api.CreatePaymentRequest]) (*connect.Response[api.CreatePaymentResponse], error) {
	return c.createPayment.CallUnary(ctx, req)
}

// ConfirmPayment calls ebills.v1.PaymentService.ConfirmPayment.
func (c *paymentServiceClient) ConfirmPayment(ctx context.Context, req *connect.Request[api.ConfirmPaymentRequest]) (*connect.Response[api.ConfirmPaymentResponse], error) {
	return c.confirmPayment.CallUnary(ctx, req)
}

// ListMyPayments calls ebills.v1.PaymentService.ListMyPayments.
func (c *paymentServiceClient) ListMyPayments(ctx context.Context, req *connect.Request[api.ListMyPaymentsRequest]) (*connect.Response[api.ListMyPaymentsResponse], error) {
	return c.listMyPayments.CallUnary(ctx, req)
}

// PaymentServiceHandler is an implementation of the ebills.v1.PaymentService service.
// Paying down debts through the payment gateway.
type PaymentServiceHandler interface {
	CreatePayment(context.Context, *connect.Request[api.CreatePaymentRequest]) (*connect.Response[api.CreatePaymentResponse], error)
	ConfirmPayment(context.Context, *connect.Request[api.ConfirmPaymentRequest]) (*connect.Response[api.ConfirmPaymentResponse], error)
	ListMyPayments(context.Context, *connect.Request[api.ListMyPaymentsRequest]) (*connect.Response[api.ListMyPaymentsResponse], error)
}

// NewPaymentServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewPaymentServiceHandler(svc PaymentServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)
	createPaymentHandler := connect.NewUnaryHandler(
		PaymentServiceCreatePaymentProcedure,
		svc.CreatePayment,
		opts...,
	)
	confirmPaymentHandler := connect.NewUnaryHandler(
		PaymentServiceConfirmPaymentProcedure,
		svc.ConfirmPayment,
		opts...,
	)
	listMyPaymentsHandler := connect.NewUnaryHandler(
		PaymentServiceListMyPaymentsProcedure,
		svc.ListMyPayments,
		opts...,
	)
	return "/ebills.v1.PaymentService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PaymentServiceCreatePaymentProcedure:
			createPaymentHandler.ServeHTTP(w, r)
		case PaymentServiceConfirmPaymentProcedure:
			confirmPaymentHandler.ServeHTTP(w, r)
		case PaymentServiceListMyPaymentsProcedure:
			listMyPaymentsHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
