package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/zapsplit/pkg/api"
)

// PayServiceName is the fully-qualified name of the PayService.
const PayServiceName = "zapsplit.v1.PayService"

// Procedure paths for each RPC.
const (
	PayServiceGetSplitProcedure       = "/zapsplit.v1.PayService/GetSplit"
	PayServiceQuoteProcedure          = "/zapsplit.v1.PayService/Quote"
	PayServiceCreatePaymentProcedure  = "/zapsplit.v1.PayService/CreatePayment"
	PayServiceConfirmPaymentProcedure = "/zapsplit.v1.PayService/ConfirmPayment"
)

// PayServiceClient is a client for the public payment-link flow.
type PayServiceClient interface {
	GetSplit(context.Context, *connect.Request[api.GetSplitRequest]) (*connect.Response[api.GetSplitResponse], error)
	Quote(context.Context, *connect.Request[api.QuoteRequest]) (*connect.Response[api.QuoteResponse], error)
	CreatePayment(context.Context, *connect.Request[api.CreatePaymentRequest]) (*connect.Response[api.CreatePaymentResponse], error)
	ConfirmPayment(context.Context, *connect.Request[api.ConfirmPaymentRequest]) (*connect.Response[api.ConfirmPaymentResponse], error)
}

// NewPayServiceClient constructs a client for the PayService. The JSON codec is
// always installed; opts may add interceptors or headers.
func NewPayServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) PayServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
	return &payServiceClient{
		getSplit: connect.NewClient[api.GetSplitRequest, api.GetSplitResponse](
			httpClient,
			baseURL+PayServiceGetSplitProcedure,
			opts...,
		),
		quote: connect.NewClient[api.QuoteRequest, api.QuoteResponse](
			httpClient,
			baseURL+PayServiceQuoteProcedure,
			opts...,
		),
		createPayment: connect.NewClient[api.CreatePaymentRequest, api.CreatePaymentResponse](
			httpClient,
			baseURL+PayServiceCreatePaymentProcedure,
			opts...,
		),
		confirmPayment: connect.NewClient[api.ConfirmPaymentRequest, api.ConfirmPaymentResponse](
			httpClient,
			baseURL+PayServiceConfirmPaymentProcedure,
			opts...,
		),
	}
}

type payServiceClient struct {
	getSplit       *connect.Client[api.GetSplitRequest, api.GetSplitResponse]
	quote          *connect.Client[api.QuoteRequest, api.QuoteResponse]
	createPayment  *connect.Client[api.CreatePaymentRequest, api.CreatePaymentResponse]
	confirmPayment *connect.Client[api.ConfirmPaymentRequest, api.ConfirmPaymentResponse]
}

func (c *payServiceClient) GetSplit(ctx context.Context, req *connect.Request[api.GetSplitRequest]) (*connect.Response[api.GetSplitResponse], error) {
	return c.getSplit.CallUnary(ctx, req)
}

func (c *payServiceClient) Quote(ctx context.Context, req *connect.Request[api.QuoteRequest]) (*connect.Response[api.QuoteResponse], error) {
	return c.quote.CallUnary(ctx, req)
}

func (c *payServiceClient) CreatePayment(ctx context.Context, req *connect.Request[api.CreatePaymentRequest]) (*connect.Response[api.CreatePaymentResponse], error) {
	return c.createPayment.CallUnary(ctx, req)
}

func (c *payServiceClient) ConfirmPayment(ctx context.Context, req *connect.Request[api.ConfirmPaymentRequest]) (*connect.Response[api.ConfirmPaymentResponse], error) {
	return c.confirmPayment.CallUnary(ctx, req)
}

// PayServiceHandler is implemented by the server side of the PayService.
type PayServiceHandler interface {
	GetSplit(context.Context, *connect.Request[api.GetSplitRequest]) (*connect.Response[api.GetSplitResponse], error)
	Quote(context.Context, *connect.Request[api.QuoteRequest]) (*connect.Response[api.QuoteResponse], error)
	CreatePayment(context.Context, *connect.Request[api.CreatePaymentRequest]) (*connect.Response[api.CreatePaymentResponse], error)
	ConfirmPayment(context.Context, *connect.Request[api.ConfirmPaymentRequest]) (*connect.Response[api.ConfirmPaymentResponse], error)
}

// NewPayServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewPayServiceHandler(svc PayServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)
	payServiceGetSplitHandler := connect.NewUnaryHandler(
		PayServiceGetSplitProcedure,
		svc.GetSplit,
		opts...,
	)
	payServiceQuoteHandler := connect.NewUnaryHandler(
		PayServiceQuoteProcedure,
		svc.Quote,
		opts...,
	)
	payServiceCreatePaymentHandler := connect.NewUnaryHandler(
		PayServiceCreatePaymentProcedure,
		svc.CreatePayment,
		opts...,
	)
	payServiceConfirmPaymentHandler := connect.NewUnaryHandler(
		PayServiceConfirmPaymentProcedure,
		svc.ConfirmPayment,
		opts...,
	)
	return "/zapsplit.v1.PayService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PayServiceGetSplitProcedure:
			payServiceGetSplitHandler.ServeHTTP(w, r)
		case PayServiceQuoteProcedure:
			payServiceQuoteHandler.ServeHTTP(w, r)
		case PayServiceCreatePaymentProcedure:
			payServiceCreatePaymentHandler.ServeHTTP(w, r)
		case PayServiceConfirmPaymentProcedure:
			payServiceConfirmPaymentHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedPayServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedPayServiceHandler struct{}

func (UnimplementedPayServiceHandler) GetSplit(context.Context, *connect.Request[api.GetSplitRequest]) (*connect.Response[api.GetSplitResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("zapsplit.v1.PayService.GetSplit is not implemented"))
}

func (UnimplementedPayServiceHandler) Quote(context.Context, *connect.Request[api.QuoteRequest]) (*connect.Response[api.QuoteResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("zapsplit.v1.PayService.Quote is not implemented"))
}

func (UnimplementedPayServiceHandler) CreatePayment(context.Context, *connect.Request[api.CreatePaymentRequest]) (*connect.Response[api.CreatePaymentResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("zapsplit.v1.PayService.CreatePayment is not implemented"))
}

func (UnimplementedPayServiceHandler) ConfirmPayment(context.Context, *connect.Request[api.ConfirmPaymentRequest]) (*connect.Response[api.ConfirmPaymentResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("zapsplit.v1.PayService.ConfirmPayment is not implemented"))
}
