// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/zapsplit/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrLinkInactive is returned for payment links that were deactivated or
	// have expired.
	ErrLinkInactive = errors.New("payment link is inactive or expired")

	// ErrInsufficientQuantity is returned when a claim asks for more of an
	// item than remains unclaimed. Nothing is written when it is returned.
	ErrInsufficientQuantity = errors.New("insufficient quantity remaining")

	// ErrPaymentClosed is returned when completing a payment that already
	// failed or lost a claim conflict.
	ErrPaymentClosed = errors.New("payment is closed")
)

// Store defines the persistence operations the services rely on.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	UserStore

	// CreateSplit persists a split and its items.
	// ID, CreatedAt, Status and item IDs are populated by the store when empty.
	CreateSplit(ctx context.Context, split *models.Split) error

	// GetSplit retrieves a split with its items ordered by index.
	GetSplit(ctx context.Context, splitID string) (*models.Split, error)

	// ListSplitsByCreator lists a creator's splits, newest first.
	ListSplitsByCreator(ctx context.Context, creatorID string) ([]*models.SplitSummary, error)

	// CreatePaymentLink persists a link, generating a short code when empty.
	CreatePaymentLink(ctx context.Context, link *models.PaymentLink) error

	// GetPaymentLinkByCode returns an active, unexpired link.
	// Returns ErrNotFound for unknown codes and ErrLinkInactive otherwise.
	GetPaymentLinkByCode(ctx context.Context, code string) (*models.PaymentLink, error)

	// DeactivatePaymentLink stops a link from accepting payments.
	DeactivatePaymentLink(ctx context.Context, linkID string) error

	// ListClaims returns every claim recorded against a split.
	ListClaims(ctx context.Context, splitID string) ([]*models.ItemClaim, error)

	// RecordClaims atomically claims quantities of split items. Each claim only
	// succeeds if enough of the item remains; otherwise no claim is recorded
	// and ErrInsufficientQuantity is returned. Claims by the same claimant on
	// the same item accumulate.
	RecordClaims(ctx context.Context, claims []*models.ItemClaim) error

	// CreatePayment persists a pending payment with the claims it will record.
	CreatePayment(ctx context.Context, payment *models.Payment) error

	// GetPayment retrieves a payment and its pending claims.
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)

	// AttachIntent stores the gateway intent created for a payment.
	AttachIntent(ctx context.Context, paymentID, intentID string) error

	// UpdatePaymentStatus moves a payment to a new status.
	UpdatePaymentStatus(ctx context.Context, paymentID string, status models.PaymentStatus) error

	// CompletePayment records the payment's claims and marks it succeeded in a
	// single transaction. Returns ErrInsufficientQuantity if any claim no
	// longer fits, in which case nothing changes, and ErrPaymentClosed if the
	// payment is no longer pending.
	CompletePayment(ctx context.Context, paymentID string) error

	// Close releases any resources held by the store.
	Close() error
}

// UserStore defines the user persistence operations.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	SetPayoutAccount(ctx context.Context, userID, accountID string) error
}
