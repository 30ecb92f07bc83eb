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

// CreateSplit persists a new split and its items.
func (s *Store) CreateSplit(ctx context.Context, split *models.Split) error {
	// Generate IDs if not set
	if split.ID == "" {
		split.ID = uuid.New().String()
	}
	if split.CreatedAt == 0 {
		split.CreatedAt = time.Now().Unix()
	}
	if split.Status == "" {
		split.Status = models.SplitStatusOpen
	}
	if split.Title == "" {
		split.Title = generateTitle(split.Items, split.CreatedAt)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := s.exec(ctx, tx,
			`INSERT INTO splits (id, title, description, total_amount_cents, creator_id, status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			split.ID, split.Title, split.Description, split.TotalAmountCents,
			split.CreatorID, string(split.Status), split.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}

		for i := range split.Items {
			item := &split.Items[i]
			if item.ID == "" {
				item.ID = uuid.New().String()
			}
			item.Index = i

			_, err = s.exec(ctx, tx,
				`INSERT INTO split_items (id, split_id, item_index, name, quantity, unit_price_cents, total_price_cents, claimed_quantity)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				item.ID, split.ID, item.Index, item.Name, item.Quantity,
				item.UnitPriceCents, item.TotalPriceCents, item.ClaimedQuantity,
			)
			if err != nil {
				return fmt.Errorf("failed to insert item: %w", err)
			}
		}
		return nil
	})
}

// GetSplit retrieves a split by ID, including all items.
func (s *Store) GetSplit(ctx context.Context, splitID string) (*models.Split, error) {
	split := &models.Split{}
	var status string
	err := s.queryRow(ctx, s.db,
		`SELECT id, title, description, total_amount_cents, creator_id, status, created_at
		 FROM splits WHERE id = ?`,
		splitID,
	).Scan(&split.ID, &split.Title, &split.Description, &split.TotalAmountCents,
		&split.CreatorID, &status, &split.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("split %s: %w", splitID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get split: %w", err)
	}
	split.Status = models.SplitStatus(status)

	rows, err := s.query(ctx, s.db,
		`SELECT id, item_index, name, quantity, unit_price_cents, total_price_cents, claimed_quantity
		 FROM split_items WHERE split_id = ? ORDER BY item_index`,
		splitID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.SplitItem
		if err := rows.Scan(&item.ID, &item.Index, &item.Name, &item.Quantity,
			&item.UnitPriceCents, &item.TotalPriceCents, &item.ClaimedQuantity); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		split.Items = append(split.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	return split, nil
}

// ListSplitsByCreator returns summaries of a creator's splits, newest first.
func (s *Store) ListSplitsByCreator(ctx context.Context, creatorID string) ([]*models.SplitSummary, error) {
	rows, err := s.query(ctx, s.db,
		`SELECT s.id, s.title, s.total_amount_cents, s.status, s.created_at,
		        (SELECT COUNT(*) FROM split_items i WHERE i.split_id = s.id)
		 FROM splits s WHERE s.creator_id = ? ORDER BY s.created_at DESC, s.id`,
		creatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list splits: %w", err)
	}
	defer rows.Close()

	var summaries []*models.SplitSummary
	for rows.Next() {
		summary := &models.SplitSummary{}
		var status string
		if err := rows.Scan(&summary.ID, &summary.Title, &summary.TotalAmountCents,
			&status, &summary.CreatedAt, &summary.ItemCount); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		summary.Status = models.SplitStatus(status)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}

	return summaries, nil
}

// generateTitle creates a title from the first few item names.
func generateTitle(items []models.SplitItem, createdAt int64) string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		if item.Name != "" {
			names = append(names, item.Name)
		}
	}

	if len(names) == 0 {
		return fmt.Sprintf("Bill - %s", time.Unix(createdAt, 0).Format("Jan 2, 2006"))
	}
	if len(names) <= 3 {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s and %d more",
		strings.Join(names[:2], ", "),
		len(names)-2,
	)
}
