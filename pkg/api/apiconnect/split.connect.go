package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/zapsplit/pkg/api"
)

// SplitServiceName is the fully-qualified name of the SplitService.
const SplitServiceName = "zapsplit.v1.SplitService"

// Procedure paths for each RPC.
const (
	SplitServiceCreateSplitProcedure           = "/zapsplit.v1.SplitService/CreateSplit"
	SplitServiceGetSplitProgressProcedure      = "/zapsplit.v1.SplitService/GetSplitProgress"
	SplitServiceListSplitsProcedure            = "/zapsplit.v1.SplitService/ListSplits"
	SplitServiceCreatePaymentLinkProcedure     = "/zapsplit.v1.SplitService/CreatePaymentLink"
	SplitServiceDeactivatePaymentLinkProcedure = "/zapsplit.v1.SplitService/DeactivatePaymentLink"
)

// SplitServiceClient is a client for the creator's split management.
type SplitServiceClient interface {
	CreateSplit(context.Context, *connect.Request[api.CreateSplitRequest]) (*connect.Response[api.CreateSplitResponse], error)
	GetSplitProgress(context.Context, *connect.Request[api.GetSplitProgressRequest]) (*connect.Response[api.GetSplitProgressResponse], error)
	ListSplits(context.Context, *connect.Request[api.ListSplitsRequest]) (*connect.Response[api.ListSplitsResponse], error)
	CreatePaymentLink(context.Context, *connect.Request[api.CreatePaymentLinkRequest]) (*connect.Response[api.CreatePaymentLinkResponse], error)
	DeactivatePaymentLink(context.Context, *connect.Request[api.DeactivatePaymentLinkRequest]) (*connect.Response[api.DeactivatePaymentLinkResponse], error)
}

// NewSplitServiceClient constructs a client for the SplitService. The JSON codec is
// always installed; opts may add interceptors or headers.
func NewSplitServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SplitServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
	return &splitServiceClient{
		createSplit: connect.NewClient[api.CreateSplitRequest, api.CreateSplitResponse](
			httpClient,
			baseURL+SplitServiceCreateSplitProcedure,
			opts...,
		),
		getSplitProgress: connect.NewClient[api.GetSplitProgressRequest, api.GetSplitProgressResponse](
			httpClient,
			baseURL+SplitServiceGetSplitProgressProcedure,
			opts...,
		),
		listSplits: connect.NewClient[api.ListSplitsRequest, api.ListSplitsResponse](
			httpClient,
			baseURL+SplitServiceListSplitsProcedure,
			opts...,
		),
		createPaymentLink: connect.NewClient[api.CreatePaymentLinkRequest, api.CreatePaymentLinkResponse](
			httpClient,
			baseURL+SplitServiceCreatePaymentLinkProcedure,
			opts...,
		),
		deactivatePaymentLink: connect.NewClient[api.DeactivatePaymentLinkRequest, api.DeactivatePaymentLinkResponse](
			httpClient,
			baseURL+SplitServiceDeactivatePaymentLinkProcedure,
			opts...,
		),
	}
}

type splitServiceClient struct {
	createSplit           *connect.Client[api.CreateSplitRequest, api.CreateSplitResponse]
	getSplitProgress      *connect.Client[api.GetSplitProgressRequest, api.GetSplitProgressResponse]
	listSplits            *connect.Client[api.ListSplitsRequest, api.ListSplitsResponse]
	createPaymentLink     *connect.Client[api.CreatePaymentLinkRequest, api.CreatePaymentLinkResponse]
	deactivatePaymentLink *connect.Client[api.DeactivatePaymentLinkRequest, api.DeactivatePaymentLinkResponse]
}

func (c *splitServiceClient) CreateSplit(ctx context.Context, req *connect.Request[api.CreateSplitRequest]) (*connect.Response[api.CreateSplitResponse], error) {
	return c.createSplit.CallUnary(ctx, req)
}

func (c *splitServiceClient) GetSplitProgress(ctx context.Context, req *connect.Request[api.GetSplitProgressRequest]) (*connect.Response[api.GetSplitProgressResponse], error) {
	return c.getSplitProgress.CallUnary(ctx, req)
}

func (c *splitServiceClient) ListSplits(ctx context.Context, req *connect.Request[api.ListSplitsRequest]) (*connect.Response[api.ListSplitsResponse], error) {
	return c.listSplits.CallUnary(ctx, req)
}

func (c *splitServiceClient) CreatePaymentLink(ctx context.Context, req *connect.Request[api.CreatePaymentLinkRequest]) (*connect.Response[api.CreatePaymentLinkResponse], error) {
	return c.createPaymentLink.CallUnary(ctx, req)
}

func (c *splitServiceClient) DeactivatePaymentLink(ctx context.Context, req *connect.Request[api.DeactivatePaymentLinkRequest]) (*connect.Response[api.DeactivatePaymentLinkResponse], error) {
	return c.deactivatePaymentLink.CallUnary(ctx, req)
}

// SplitServiceHandler is implemented by the server side of the SplitService.
type SplitServiceHandler interface {
	CreateSplit(context.Context, *connect.Request[api.CreateSplitRequest]) (*connect.Response[api.CreateSplitResponse], error)
	GetSplitProgress(context.Context, *connect.Request[api.GetSplitProgressRequest]) (*connect.Response[api.GetSplitProgressResponse], error)
	ListSplits(context.Context, *connect.Request[api.ListSplitsRequest]) (*connect.Response[api.ListSplitsResponse], error)
	CreatePaymentLink(context.Context, *connect.Request[api.CreatePaymentLinkRequest]) (*connect.Response[api.CreatePaymentLinkResponse], error)
	DeactivatePaymentLink(context.Context, *connect.Request[api.DeactivatePaymentLinkRequest]) (*connect.Response[api.DeactivatePaymentLinkResponse], error)
}

// NewSplitServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewSplitServiceHandler(svc SplitServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)
	splitServiceCreateSplitHandler := connect.NewUnaryHandler(
		SplitServiceCreateSplitProcedure,
		svc.CreateSplit,
		opts...,
	)
	splitServiceGetSplitProgressHandler := connect.NewUnaryHandler(
		SplitServiceGetSplitProgressProcedure,
		svc.GetSplitProgress,
		opts...,
	)
	splitServiceListSplitsHandler := connect.NewUnaryHandler(
		SplitServiceListSplitsProcedure,
		svc.ListSplits,
		opts...,
	)
	splitServiceCreatePaymentLinkHandler := connect.NewUnaryHandler(
		SplitServiceCreatePaymentLinkProcedure,
		svc.CreatePaymentLink,
		opts...,
	)
	splitServiceDeactivatePaymentLinkHandler := connect.NewUnaryHandler(
		SplitServiceDeactivatePaymentLinkProcedure,
		svc.DeactivatePaymentLink,
		opts...,
	)
	return "/zapsplit.v1.SplitService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case SplitServiceCreateSplitProcedure:
			splitServiceCreateSplitHandler.ServeHTTP(w, r)
		case SplitServiceGetSplitProgressProcedure:
			splitServiceGetSplitProgressHandler.ServeHTTP(w, r)
		case SplitServiceListSplitsProcedure:
			splitServiceListSplitsHandler.ServeHTTP(w, r)
		case SplitServiceCreatePaymentLinkProcedure:
			splitServiceCreatePaymentLinkHandler.ServeHTTP(w, r)
		case SplitServiceDeactivatePaymentLinkProcedure:
			splitServiceDeactivatePaymentLinkHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedSplitServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedSplitServiceHandler struct{}

func (UnimplementedSplitServiceHandler) CreateSplit(context.Context, *connect.Request[api.CreateSplitRequest]) (*connect.Response[api.CreateSplitResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("zapsplit.v1.SplitService.CreateSplit is not implemented"))
}

func (UnimplementedSplitServiceHandler) GetSplitProgress(context.Context, *connect.Request[api.GetSplitProgressRequest]) (*connect.Response[api.GetSplitProgressResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("zapsplit.v1.SplitService.GetSplitProgress is not implemented"))
}

func (UnimplementedSplitServiceHandler) ListSplits(context.Context, *connect.Request[api.ListSplitsRequest]) (*connect.Response[api.ListSplitsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("zapsplit.v1.SplitService.ListSplits is not implemented"))
}

func (UnimplementedSplitServiceHandler) CreatePaymentLink(context.Context, *connect.Request[api.CreatePaymentLinkRequest]) (*connect.Response[api.CreatePaymentLinkResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("zapsplit.v1.SplitService.CreatePaymentLink is not implemented"))
}

func (UnimplementedSplitServiceHandler) DeactivatePaymentLink(context.Context, *connect.Request[api.DeactivatePaymentLinkRequest]) (*connect.Response[api.DeactivatePaymentLinkResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("zapsplit.v1.SplitService.DeactivatePaymentLink is not implemented"))
}
