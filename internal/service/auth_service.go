package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/zapsplit/internal/auth"
	"github.com/mmynk/zapsplit/internal/models"
	"github.com/mmynk/zapsplit/internal/storage"
	"github.com/mmynk/zapsplit/pkg/api"
	"github.com/mmynk/zapsplit/pkg/api/apiconnect"
)

// Ensure AuthService implements the Connect handler
var _ apiconnect.AuthServiceHandler = (*AuthService)(nil)

// payoutAccountPrefix marks a connected account ID on the payment gateway.
const payoutAccountPrefix = "acct_"

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	authenticator auth.Authenticator
	sessions      *auth.SessionManager
	users         storage.UserStore
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, sessions *auth.SessionManager, users storage.UserStore, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		sessions:      sessions,
		users:         users,
		logger:        logger,
	}
}

// Register creates a new user account.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[api.RegisterRequest]) (*connect.Response[api.RegisterResponse], error) {
	s.logger.Info("Register request", "email", req.Msg.Email)

	// Validate input
	if !validEmail(req.Msg.Email) {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}
	if strings.TrimSpace(req.Msg.DisplayName) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("display name is required"))
	}

	// Register user
	user, err := s.authenticator.Register(ctx, req.Msg.Email, req.Msg.DisplayName, req.Msg.Password)
	if err != nil {
		s.logger.Error("Registration failed", "email", req.Msg.Email, "error", err)
		if errors.Is(err, auth.ErrEmailExists) {
			return nil, connect.NewError(connect.CodeAlreadyExists, err)
		}
		if errors.Is(err, auth.ErrWeakPassword) {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return connect.NewResponse(&api.RegisterResponse{
		User:      userToAPI(user),
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Unix(),
	}), nil
}

// Login authenticates a user and returns a fresh session.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[api.LoginRequest]) (*connect.Response[api.LoginResponse], error) {
	s.logger.Info("Login request", "email", req.Msg.Email)

	// Validate input
	if req.Msg.Email == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, auth.ErrInvalidCredentials)
	}

	user, err := s.authenticator.Authenticate(ctx, req.Msg.Email, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", req.Msg.Email, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID, "email", user.Email)
	return connect.NewResponse(&api.LoginResponse{
		User:      userToAPI(user),
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Unix(),
	}), nil
}

// GetCurrentUser returns the currently authenticated user's information.
func (s *AuthService) GetCurrentUser(ctx context.Context, req *connect.Request[api.GetCurrentUserRequest]) (*connect.Response[api.GetCurrentUserResponse], error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.GetCurrentUserResponse{User: userToAPI(user)}), nil
}

// UpdatePayoutAccount stores the connected account that receives the
// caller's payments and reissues the session so it reflects the new state.
func (s *AuthService) UpdatePayoutAccount(ctx context.Context, req *connect.Request[api.UpdatePayoutAccountRequest]) (*connect.Response[api.UpdatePayoutAccountResponse], error) {
	user, err := s.currentUser(ctx)
	if err != nil {
		return nil, err
	}

	accountID := strings.TrimSpace(req.Msg.AccountID)
	if !strings.HasPrefix(accountID, payoutAccountPrefix) || len(accountID) == len(payoutAccountPrefix) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("account_id must be a connected account ID (acct_...)"))
	}

	if err := s.users.SetPayoutAccount(ctx, user.ID, accountID); err != nil {
		s.logger.Error("Failed to set payout account", "user_id", user.ID, "error", err)
		return nil, storeError(err)
	}
	user.PayoutAccountID = accountID

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payout account updated", "user_id", user.ID)
	return connect.NewResponse(&api.UpdatePayoutAccountResponse{
		User:      userToAPI(user),
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.Unix(),
	}), nil
}

// issue signs a session for user.
func (s *AuthService) issue(user *models.User) (auth.Session, error) {
	session, err := s.sessions.Issue(user)
	if err != nil {
		s.logger.Error("Failed to issue session", "user_id", user.ID, "error", err)
		return auth.Session{}, connect.NewError(connect.CodeInternal, err)
	}
	return session, nil
}

// currentUser loads the caller from storage.
func (s *AuthService) currentUser(ctx context.Context) (*models.User, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Token outlived its account.
			return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
		}
		s.logger.Error("Failed to load user", "user_id", userID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return user, nil
}
