package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/ebills/pkg/api"
)

// CommentServiceName is the fully-qualified name of the CommentService service.
const CommentServiceName = "ebills.v1.CommentService"

// These constants are the fully-qualified names of the RPCs defined in this
// package. They're exposed at runtime as Spec.Procedure and as the final two
// segments of the HTTP route.
const (
	// CommentServiceListCommentsProcedure is the fully-qualified name of the CommentService's ListComments RPC.
	CommentServiceListCommentsProcedure = "/ebills.v1.CommentService/ListComments"
	// CommentServiceCreateCommentProcedure is the fully-qualified name of the CommentService's CreateComment RPC.
	CommentServiceCreateCommentProcedure = "/ebills.v1.CommentService/CreateComment"
)

// CommentServiceClient is a client for the ebills.v1.CommentService service.
type CommentServiceClient interface {
	ListComments(context.Context, *connect.Request[api.ListCommentsRequest]) (*connect.Response[api.ListCommentsResponse], error)
	CreateComment(context.Context, *connect.Request[api.CreateCommentRequest]) (*connect.Response[api.CreateCommentResponse], error)
}

// NewCommentServiceClient constructs a client for the ebills.v1.CommentService service.
// The JSON codec is always used.
//
// The URL supplied here should be the base URL for the Connect server
// (for example, http://api.acme.com or https://acme.com/grpc).
func NewCommentServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) CommentServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
	return &commentServiceClient{
		listComments: connect.NewClient[api.ListCommentsRequest, api.ListCommentsResponse](
			httpClient,
			baseURL+CommentServiceListCommentsProcedure,
			opts...,
		),
		createComment: connect.NewClient[api.CreateCommentRequest, api.CreateCommentResponse](
			httpClient,
			baseURL+CommentServiceCreateCommentProcedure,
			opts...,
		),
	}
}

// commentServiceClient implements CommentServiceClient.
type commentServiceClient struct {
	listComments  *connect.Client[api.ListCommentsRequest, api.ListCommentsResponse]
	createComment *connect.Client[api.CreateCommentRequest, api.CreateCommentResponse]
}

// ListComments calls ebills.v1.CommentService.ListComments.
func (c *commentServiceClient) ListComments(ctx context.Context, req *connect.Request[api.ListCommentsRequest]) (*connect.Response[api.ListCommentsResponse], error) {
	return c.listComments.CallUnary(ctx, req)
}

// CreateComment calls ebills.v1.CommentService.CreateComment.
func (c *commentServiceClient) CreateComment(ctx context.Context, req *connect.Request[api.CreateCommentRequest]) (*connect.Response[api.CreateCommentResponse], error) {
	return c.createComment.CallUnary(ctx, req)
}

// CommentServiceHandler is an implementation of the ebills.v1.CommentService service.
// Discussion threads on bills.
type CommentServiceHandler interface {
	ListComments(context.Context, *connect.Request[api.ListCommentsRequest]) (*connect.Response[api.ListCommentsResponse], error)
	CreateComment(context.Context, *connect.Request[api.CreateCommentRequest]) (*connect.Response[api.CreateCommentResponse], error)
}

// NewCommentServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewCommentServiceHandler(svc CommentServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)
	listCommentsHandler := connect.NewUnaryHandler(
		CommentServiceListCommentsProcedure,
		svc.ListComments,
		opts...,
	)
	createCommentHandler := connect.NewUnaryHandler(
		CommentServiceCreateCommentProcedure,
		svc.CreateComment,
		opts...,
	)
	return "/ebills.v1.CommentService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case CommentServiceListCommentsProcedure:
			listCommentsHandler.ServeHTTP(w, r)
		case CommentServiceCreateCommentProcedure:
			createCommentHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
