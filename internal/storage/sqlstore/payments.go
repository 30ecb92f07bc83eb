package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/zapsplit/internal/models"
	"github.com/mmynk/zapsplit/internal/storage"
)

const paymentColumns = `id, split_id, payment_link_id, payer_name, payer_email, amount_cents,
	platform_fee_cents, currency, intent_id, status, recipient_user_id, created_at, updated_at`

// CreatePayment persists a pending payment and the claims it carries.
func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if p.CreatedAt == 0 {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt
	if p.Status == "" {
		p.Status = models.PaymentPending
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := s.exec(ctx, tx,
			`INSERT INTO payments (`+paymentColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.SplitID, p.PaymentLinkID, p.PayerName, p.PayerEmail, p.AmountCents,
			p.PlatformFeeCents, p.Currency, p.IntentID, string(p.Status), p.RecipientUserID,
			p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}

		for _, c := range p.Claims {
			_, err = s.exec(ctx, tx,
				`INSERT INTO payment_claims (payment_id, item_index, item_name, amount_cents, quantity_claimed, share_count)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				p.ID, c.ItemIndex, c.ItemName, c.AmountCents, c.QuantityClaimed, c.ShareCount,
			)
			if err != nil {
				return fmt.Errorf("failed to insert payment claim: %w", err)
			}
		}
		return nil
	})
}

// GetPayment retrieves a payment with its pending claims.
func (s *Store) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	return s.getPayment(ctx, s.db, paymentID)
}

func (s *Store) getPayment(ctx context.Context, q querier, paymentID string) (*models.Payment, error) {
	p := &models.Payment{}
	var status string
	err := s.queryRow(ctx, q,
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`,
		paymentID,
	).Scan(&p.ID, &p.SplitID, &p.PaymentLinkID, &p.PayerName, &p.PayerEmail, &p.AmountCents,
		&p.PlatformFeeCents, &p.Currency, &p.IntentID, &status, &p.RecipientUserID,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment %s: %w", paymentID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	p.Status = models.PaymentStatus(status)

	rows, err := s.query(ctx, q,
		`SELECT item_index, item_name, amount_cents, quantity_claimed, share_count
		 FROM payment_claims WHERE payment_id = ? ORDER BY item_index`,
		paymentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment claims: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c := models.ItemClaim{
			SplitID:       p.SplitID,
			PaymentLinkID: p.PaymentLinkID,
			ClaimantName:  p.PayerName,
			ClaimantEmail: p.PayerEmail,
		}
		if err := rows.Scan(&c.ItemIndex, &c.ItemName, &c.AmountCents, &c.QuantityClaimed, &c.ShareCount); err != nil {
			return nil, fmt.Errorf("failed to scan payment claim: %w", err)
		}
		p.Claims = append(p.Claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payment claims: %w", err)
	}

	return p, nil
}

// AttachIntent stores the gateway intent ID on a payment.
func (s *Store) AttachIntent(ctx context.Context, paymentID, intentID string) error {
	res, err := s.exec(ctx, s.db,
		`UPDATE payments SET intent_id = ?, updated_at = ? WHERE id = ?`,
		intentID, time.Now().Unix(), paymentID,
	)
	if err != nil {
		return fmt.Errorf("failed to attach intent: %w", err)
	}
	return requireAffected(res, "payment", paymentID)
}

// UpdatePaymentStatus sets a payment's status.
func (s *Store) UpdatePaymentStatus(ctx context.Context, paymentID string, status models.PaymentStatus) error {
	res, err := s.exec(ctx, s.db,
		`UPDATE payments SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().Unix(), paymentID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	return requireAffected(res, "payment", paymentID)
}

// CompletePayment records a pending payment's claims and marks it succeeded.
// The status moves first so concurrent callers serialize on the payment row
// and only one of them records claims. A payment that already succeeded is
// left alone.
func (s *Store) CompletePayment(ctx context.Context, paymentID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := s.exec(ctx, tx,
			`UPDATE payments SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			string(models.PaymentSucceeded), time.Now().Unix(), paymentID, string(models.PaymentPending),
		)
		if err != nil {
			return fmt.Errorf("failed to mark payment succeeded: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}

		p, err := s.getPayment(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		if n == 0 {
			if p.Status == models.PaymentSucceeded {
				return nil
			}
			return fmt.Errorf("payment %s is %s: %w", paymentID, p.Status, storage.ErrPaymentClosed)
		}

		claims := make([]*models.ItemClaim, len(p.Claims))
		for i := range p.Claims {
			claims[i] = &p.Claims[i]
		}
		// An error here rolls the status back to pending.
		return s.recordClaimsTx(ctx, tx, claims)
	})
}
