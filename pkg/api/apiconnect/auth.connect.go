package apiconnect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/zapsplit/pkg/api"
)

// AuthServiceName is the fully-qualified name of the AuthService.
const AuthServiceName = "zapsplit.v1.AuthService"

// Procedure paths for each RPC.
const (
	AuthServiceRegisterProcedure            = "/zapsplit.v1.AuthService/Register"
	AuthServiceLoginProcedure               = "/zapsplit.v1.AuthService/Login"
	AuthServiceGetCurrentUserProcedure      = "/zapsplit.v1.AuthService/GetCurrentUser"
	AuthServiceUpdatePayoutAccountProcedure = "/zapsplit.v1.AuthService/UpdatePayoutAccount"
)

// AuthServiceClient is a client for the creator accounts.
type AuthServiceClient interface {
	Register(context.Context, *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error)
	Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error)
	GetCurrentUser(context.Context, *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error)
	UpdatePayoutAccount(context.Context, *connect.Request[api.UpdatePayoutAccountRequest]) (*connect.Response[api.UpdatePayoutAccountResponse], error)
}

// NewAuthServiceClient constructs a client for the AuthService. The JSON codec is
// always installed; opts may add interceptors or headers.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
	return &authServiceClient{
		register: connect.NewClient[api.RegisterRequest, api.RegisterResponse](
			httpClient,
			baseURL+AuthServiceRegisterProcedure,
			opts...,
		),
		login: connect.NewClient[api.LoginRequest, api.LoginResponse](
			httpClient,
			baseURL+AuthServiceLoginProcedure,
			opts...,
		),
		getCurrentUser: connect.NewClient[api.GetCurrentUserRequest, api.GetCurrentUserResponse](
			httpClient,
			baseURL+AuthServiceGetCurrentUserProcedure,
			opts...,
		),
		updatePayoutAccount: connect.NewClient[api.UpdatePayoutAccountRequest, api.UpdatePayoutAccountResponse](
			httpClient,
			baseURL+AuthServiceUpdatePayoutAccountProcedure,
			opts...,
		),
	}
}

type authServiceClient struct {
	register            *connect.Client[api.RegisterRequest, api.RegisterResponse]
	login               *connect.Client[api.LoginRequest, api.LoginResponse]
	getCurrentUser      *connect.Client[api.GetCurrentUserRequest, api.GetCurrentUserResponse]
	updatePayoutAccount *connect.Client[api.UpdatePayoutAccountRequest, api.UpdatePayoutAccountResponse]
}

func (c *authServiceClient) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *authServiceClient) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *authServiceClient) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	return c.getCurrentUser.CallUnary(ctx, req)
}

func (c *authServiceClient) UpdatePayoutAccount(ctx context.Context, req *connect.Request[api.UpdatePayoutAccountRequest]) (*connect.Response[api.UpdatePayoutAccountResponse], error) {
	return c.updatePayoutAccount.CallUnary(ctx, req)
}

// AuthServiceHandler is implemented by the server side of the AuthService.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error)
	Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error)
	GetCurrentUser(context.Context, *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error)
	UpdatePayoutAccount(context.Context, *connect.Request[api.UpdatePayoutAccountRequest]) (*connect.Response[api.UpdatePayoutAccountResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)
	authServiceRegisterHandler := connect.NewUnaryHandler(
		AuthServiceRegisterProcedure,
		svc.Register,
		opts...,
	)
	authServiceLoginHandler := connect.NewUnaryHandler(
		AuthServiceLoginProcedure,
		svc.Login,
		opts...,
	)
	authServiceGetCurrentUserHandler := connect.NewUnaryHandler(
		AuthServiceGetCurrentUserProcedure,
		svc.GetCurrentUser,
		opts...,
	)
	authServiceUpdatePayoutAccountHandler := connect.NewUnaryHandler(
		AuthServiceUpdatePayoutAccountProcedure,
		svc.UpdatePayoutAccount,
		opts...,
	)
	return "/zapsplit.v1.AuthService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AuthServiceRegisterProcedure:
			authServiceRegisterHandler.ServeHTTP(w, r)
		case AuthServiceLoginProcedure:
			authServiceLoginHandler.ServeHTTP(w, r)
		case AuthServiceGetCurrentUserProcedure:
			authServiceGetCurrentUserHandler.ServeHTTP(w, r)
		case AuthServiceUpdatePayoutAccountProcedure:
			authServiceUpdatePayoutAccountHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedAuthServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedAuthServiceHandler struct{}

func (UnimplementedAuthServiceHandler) Register(context.Context, *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("zapsplit.v1.AuthService.Register is not implemented"))
}

func (UnimplementedAuthServiceHandler) Login(context.Context, *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("zapsplit.v1.AuthService.Login is not implemented"))
}

func (UnimplementedAuthServiceHandler) GetCurrentUser(context.Context, *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("zapsplit.v1.AuthService.GetCurrentUser is not implemented"))
}

func (UnimplementedAuthServiceHandler) UpdatePayoutAccount(context.Context, *connect.Request[api.UpdatePayoutAccountRequest]) (*connect.Response[api.UpdatePayoutAccountResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("zapsplit.v1.AuthService.UpdatePayoutAccount is not implemented"))
}
