package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/zapsplit/internal/models"
	"github.com/mmynk/zapsplit/internal/storage"
)

// shortCodeLength is the number of characters in a generated link code.
const shortCodeLength = 10

// CreatePaymentLink persists a new payment link.
func (s *Store) CreatePaymentLink(ctx context.Context, link *models.PaymentLink) error {
	if link.ID == "" {
		link.ID = uuid.New().String()
	}
	if link.ShortCode == "" {
		link.ShortCode = newShortCode()
	}
	if link.CreatedAt == 0 {
		link.CreatedAt = time.Now().Unix()
	}
	link.IsActive = true

	_, err := s.exec(ctx, s.db,
		`INSERT INTO payment_links (id, split_id, short_code, created_by, created_at, expires_at, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		link.ID, link.SplitID, link.ShortCode, link.CreatedBy, link.CreatedAt, link.ExpiresAt, link.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment link: %w", err)
	}
	return nil
}

// GetPaymentLinkByCode looks up a link by its short code.
func (s *Store) GetPaymentLinkByCode(ctx context.Context, code string) (*models.PaymentLink, error) {
	link := &models.PaymentLink{}
	err := s.queryRow(ctx, s.db,
		`SELECT id, split_id, short_code, created_by, created_at, expires_at, is_active
		 FROM payment_links WHERE short_code = ?`,
		code,
	).Scan(&link.ID, &link.SplitID, &link.ShortCode, &link.CreatedBy, &link.CreatedAt, &link.ExpiresAt, &link.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment link %s: %w", code, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment link: %w", err)
	}

	if !link.IsActive || link.Expired(time.Now().Unix()) {
		return nil, fmt.Errorf("payment link %s: %w", code, storage.ErrLinkInactive)
	}

	return link, nil
}

// DeactivatePaymentLink marks a link inactive.
func (s *Store) DeactivatePaymentLink(ctx context.Context, linkID string) error {
	res, err := s.exec(ctx, s.db, `UPDATE payment_links SET is_active = ? WHERE id = ?`, false, linkID)
	if err != nil {
		return fmt.Errorf("failed to deactivate payment link: %w", err)
	}
	return requireAffected(res, "payment link", linkID)
}

// newShortCode derives a URL-safe code from a random UUID.
func newShortCode() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:shortCodeLength]
}
