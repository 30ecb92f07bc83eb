package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/zapsplit/internal/calculator"
	"github.com/mmynk/zapsplit/internal/middleware"
	"github.com/mmynk/zapsplit/internal/models"
	"github.com/mmynk/zapsplit/internal/storage"
	"github.com/mmynk/zapsplit/pkg/api"
	"github.com/mmynk/zapsplit/pkg/api/apiconnect"
)

// Ensure SplitService implements the Connect handler
var _ apiconnect.SplitServiceHandler = (*SplitService)(nil)

// SplitConfig holds settings for creator operations.
type SplitConfig struct {
	Policy calculator.Policy

	// LinkTTL is how long a new payment link stays valid.
	LinkTTL time.Duration

	// PublicURL prefixes payment link URLs.
	PublicURL string
}

// SplitService implements the Connect SplitService for bill creators.
// Every method requires an authenticated caller.
type SplitService struct {
	store  storage.Store
	cfg    SplitConfig
	logger *slog.Logger
}

// NewSplitService creates a new SplitService with the given storage backend.
func NewSplitService(store storage.Store, cfg SplitConfig, logger *slog.Logger) *SplitService {
	return &SplitService{store: store, cfg: cfg, logger: logger}
}

// callerID returns the authenticated user, or Unauthenticated.
func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errors.New("authentication required"))
	}
	return userID, nil
}

// ownedSplit loads a split and checks that the caller created it.
func (s *SplitService) ownedSplit(ctx context.Context, splitID string) (*models.Split, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if splitID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("split_id is required"))
	}

	split, err := s.store.GetSplit(ctx, splitID)
	if err != nil {
		return nil, storeError(err)
	}
	if split.CreatorID != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New("split belongs to another user"))
	}
	return split, nil
}

// validateItems checks receipt lines and fills in missing totals.
func validateItems(items []api.Item) ([]models.SplitItem, error) {
	if len(items) == 0 {
		return nil, errors.New("at least one item is required")
	}

	out := make([]models.SplitItem, len(items))
	for i, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return nil, fmt.Errorf("item %d: name is required", i)
		}
		if math.IsNaN(item.Quantity) || math.IsInf(item.Quantity, 0) || item.Quantity <= 0 {
			return nil, fmt.Errorf("item %d (%s): quantity must be positive", i, name)
		}
		if item.UnitPriceCents < 0 || item.TotalPriceCents < 0 {
			return nil, fmt.Errorf("item %d (%s): prices must not be negative", i, name)
		}

		total := item.TotalPriceCents
		if total == 0 {
			total = int64(math.Round(float64(item.UnitPriceCents) * item.Quantity))
		}
		unit := item.UnitPriceCents
		if unit == 0 {
			unit = int64(math.Round(float64(total) / item.Quantity))
		}

		out[i] = models.SplitItem{
			Index:           i,
			Name:            name,
			Quantity:        item.Quantity,
			UnitPriceCents:  unit,
			TotalPriceCents: total,
		}
	}
	return out, nil
}

// CreateSplit stores a new receipt for the caller.
func (s *SplitService) CreateSplit(ctx context.Context, req *connect.Request[api.CreateSplitRequest]) (*connect.Response[api.CreateSplitResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("CreateSplit request", "user_id", userID, "items", len(req.Msg.Items))

	items, err := validateItems(req.Msg.Items)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if req.Msg.TotalAmountCents < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("total_amount_cents must not be negative"))
	}

	total := req.Msg.TotalAmountCents
	if total == 0 {
		// No tax or tip: the bill is just its items.
		for _, item := range items {
			total += item.TotalPriceCents
		}
	}

	split := &models.Split{
		Title:            strings.TrimSpace(req.Msg.Title),
		Description:      strings.TrimSpace(req.Msg.Description),
		TotalAmountCents: total,
		CreatorID:        userID,
		Items:            items,
	}
	if err := s.store.CreateSplit(ctx, split); err != nil {
		s.logger.Error("Failed to create split", "user_id", userID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Split created", "split_id", split.ID, "title", split.Title, "total_cents", split.TotalAmountCents)
	return connect.NewResponse(&api.CreateSplitResponse{
		SplitID: split.ID,
		Title:   split.Title,
	}), nil
}

// GetSplitProgress shows the creator who has paid for what.
func (s *SplitService) GetSplitProgress(ctx context.Context, req *connect.Request[api.GetSplitProgressRequest]) (*connect.Response[api.GetSplitProgressResponse], error) {
	split, err := s.ownedSplit(ctx, req.Msg.SplitID)
	if err != nil {
		return nil, err
	}

	recorded, err := s.store.ListClaims(ctx, split.ID)
	if err != nil {
		s.logger.Error("Failed to load claims", "split_id", split.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	claims := claimsFromModels(recorded)
	progress := s.cfg.Policy.Progress(billFromSplit(split), claims)

	claimants := make([]api.ClaimantSummary, len(progress.Claimants))
	for i, c := range progress.Claimants {
		rounded := c.Settlement.Rounded()
		claimants[i] = api.ClaimantSummary{
			Name:            c.Name,
			Email:           c.ClaimantID,
			ItemCount:       c.ItemCount,
			ItemsTotalCents: rounded.ItemsTotal,
			TaxShareCents:   rounded.TaxShare,
			TipShareCents:   rounded.TipShare,
			TotalCents:      rounded.Total,
		}
	}

	return connect.NewResponse(&api.GetSplitProgressResponse{
		SplitID:           split.ID,
		Title:             split.Title,
		Status:            string(split.Status),
		TotalAmountCents:  split.TotalAmountCents,
		CoveredCents:      progress.Covered.Round(),
		OutstandingCents:  progress.Outstanding.Round(),
		FullyClaimedItems: progress.FullyClaimedItems,
		Items:             availabilityToAPI(split, claims),
		Claimants:         claimants,
	}), nil
}

// ListSplits returns the caller's splits, newest first.
func (s *SplitService) ListSplits(ctx context.Context, req *connect.Request[api.ListSplitsRequest]) (*connect.Response[api.ListSplitsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	summaries, err := s.store.ListSplitsByCreator(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list splits", "user_id", userID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	splits := make([]api.SplitSummary, len(summaries))
	for i, summary := range summaries {
		splits[i] = api.SplitSummary{
			ID:               summary.ID,
			Title:            summary.Title,
			TotalAmountCents: summary.TotalAmountCents,
			Status:           string(summary.Status),
			ItemCount:        summary.ItemCount,
			CreatedAt:        summary.CreatedAt,
		}
	}

	return connect.NewResponse(&api.ListSplitsResponse{Splits: splits}), nil
}

// CreatePaymentLink issues a shareable link for one of the caller's splits.
func (s *SplitService) CreatePaymentLink(ctx context.Context, req *connect.Request[api.CreatePaymentLinkRequest]) (*connect.Response[api.CreatePaymentLinkResponse], error) {
	split, err := s.ownedSplit(ctx, req.Msg.SplitID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	link := &models.PaymentLink{
		SplitID:   split.ID,
		CreatedBy: split.CreatorID,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(s.cfg.LinkTTL).Unix(),
	}
	if err := s.store.CreatePaymentLink(ctx, link); err != nil {
		s.logger.Error("Failed to create payment link", "split_id", split.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	payoutReady := false
	if session := middleware.GetSession(ctx); session != nil {
		payoutReady = session.PayoutReady
	}

	s.logger.Info("Payment link created", "split_id", split.ID, "code", link.ShortCode, "payout_ready", payoutReady)
	return connect.NewResponse(&api.CreatePaymentLinkResponse{
		Link: api.PaymentLink{
			ID:        link.ID,
			SplitID:   link.SplitID,
			ShortCode: link.ShortCode,
			URL:       strings.TrimRight(s.cfg.PublicURL, "/") + "/pay/" + link.ShortCode,
			ExpiresAt: link.ExpiresAt,
			IsActive:  link.IsActive,
		},
		PayoutReady: payoutReady,
	}), nil
}

// DeactivatePaymentLink stops one of the caller's links from taking payments.
func (s *SplitService) DeactivatePaymentLink(ctx context.Context, req *connect.Request[api.DeactivatePaymentLinkRequest]) (*connect.Response[api.DeactivatePaymentLinkResponse], error) {
	if _, err := callerID(ctx); err != nil {
		return nil, err
	}
	if req.Msg.Code == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("code is required"))
	}

	link, err := s.store.GetPaymentLinkByCode(ctx, req.Msg.Code)
	if err != nil {
		return nil, storeError(err)
	}
	if _, err := s.ownedSplit(ctx, link.SplitID); err != nil {
		return nil, err
	}

	if err := s.store.DeactivatePaymentLink(ctx, link.ID); err != nil {
		s.logger.Error("Failed to deactivate payment link", "link_id", link.ID, "error", err)
		return nil, storeError(err)
	}

	s.logger.Info("Payment link deactivated", "split_id", link.SplitID, "code", link.ShortCode)
	return connect.NewResponse(&api.DeactivatePaymentLinkResponse{}), nil
}
