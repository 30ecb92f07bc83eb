package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/zapsplit/internal/models"
	"github.com/mmynk/zapsplit/internal/storage"
)

// ListClaims returns every claim on a split, ordered by item then claimant.
func (s *Store) ListClaims(ctx context.Context, splitID string) ([]*models.ItemClaim, error) {
	rows, err := s.query(ctx, s.db,
		`SELECT id, split_id, payment_link_id, item_index, item_name, amount_cents,
		        claimant_name, claimant_email, quantity_claimed, share_count, created_at
		 FROM item_claims WHERE split_id = ? ORDER BY item_index, claimant_email`,
		splitID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	var claims []*models.ItemClaim
	for rows.Next() {
		c := &models.ItemClaim{}
		if err := rows.Scan(&c.ID, &c.SplitID, &c.PaymentLinkID, &c.ItemIndex, &c.ItemName,
			&c.AmountCents, &c.ClaimantName, &c.ClaimantEmail, &c.QuantityClaimed,
			&c.ShareCount, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claims: %w", err)
	}

	return claims, nil
}

// RecordClaims records claims atomically. See storage.Store.
func (s *Store) RecordClaims(ctx context.Context, claims []*models.ItemClaim) error {
	if len(claims) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.recordClaimsTx(ctx, tx, claims)
	})
}

// recordClaimsTx reserves each claim's quantity on its item, upserts the
// claim row, then settles every split that no longer has anything left.
func (s *Store) recordClaimsTx(ctx context.Context, tx *sql.Tx, claims []*models.ItemClaim) error {
	now := time.Now().Unix()
	splits := make(map[string]struct{})

	for _, c := range claims {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		if c.CreatedAt == 0 {
			c.CreatedAt = now
		}
		if c.ShareCount < 1 {
			c.ShareCount = 1
		}

		// The guard in the WHERE clause makes the check and the increment a
		// single statement, so concurrent payers cannot both take the last unit.
		res, err := s.exec(ctx, tx,
			`UPDATE split_items SET claimed_quantity = claimed_quantity + ?
			 WHERE split_id = ? AND item_index = ? AND claimed_quantity + ? <= quantity + ?`,
			c.QuantityClaimed, c.SplitID, c.ItemIndex, c.QuantityClaimed, claimTolerance,
		)
		if err != nil {
			return fmt.Errorf("failed to reserve item %d: %w", c.ItemIndex, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n == 0 {
			return s.missingOrExhausted(ctx, tx, c)
		}

		_, err = s.exec(ctx, tx,
			`INSERT INTO item_claims (id, split_id, payment_link_id, item_index, item_name, amount_cents,
			                          claimant_name, claimant_email, quantity_claimed, share_count, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (split_id, item_index, claimant_email) DO UPDATE SET
			     quantity_claimed = item_claims.quantity_claimed + excluded.quantity_claimed,
			     amount_cents = item_claims.amount_cents + excluded.amount_cents,
			     share_count = excluded.share_count,
			     claimant_name = excluded.claimant_name`,
			c.ID, c.SplitID, c.PaymentLinkID, c.ItemIndex, c.ItemName, c.AmountCents,
			c.ClaimantName, c.ClaimantEmail, c.QuantityClaimed, c.ShareCount, c.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to record claim on item %d: %w", c.ItemIndex, err)
		}

		splits[c.SplitID] = struct{}{}
	}

	for splitID := range splits {
		if err := s.settleIfClaimed(ctx, tx, splitID); err != nil {
			return err
		}
	}
	return nil
}

// missingOrExhausted distinguishes an unknown item from one without enough
// quantity left after a guarded update touched no rows.
func (s *Store) missingOrExhausted(ctx context.Context, tx *sql.Tx, c *models.ItemClaim) error {
	var exists int
	err := s.queryRow(ctx, tx,
		`SELECT COUNT(*) FROM split_items WHERE split_id = ? AND item_index = ?`,
		c.SplitID, c.ItemIndex,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check item %d: %w", c.ItemIndex, err)
	}
	if exists == 0 {
		return fmt.Errorf("item %d of split %s: %w", c.ItemIndex, c.SplitID, storage.ErrNotFound)
	}
	return fmt.Errorf("item %d (%s): %w", c.ItemIndex, c.ItemName, storage.ErrInsufficientQuantity)
}

// settleIfClaimed marks a split settled once every item is fully claimed.
func (s *Store) settleIfClaimed(ctx context.Context, tx *sql.Tx, splitID string) error {
	_, err := s.exec(ctx, tx,
		`UPDATE splits SET status = ?
		 WHERE id = ? AND NOT EXISTS (
		     SELECT 1 FROM split_items
		     WHERE split_id = ? AND claimed_quantity + ? < quantity
		 )`,
		string(models.SplitStatusSettled), splitID, splitID, claimTolerance,
	)
	if err != nil {
		return fmt.Errorf("failed to settle split: %w", err)
	}
	return nil
}
