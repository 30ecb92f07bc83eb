package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/zapsplit/internal/calculator"
	"github.com/mmynk/zapsplit/internal/metrics"
	"github.com/mmynk/zapsplit/internal/models"
	"github.com/mmynk/zapsplit/internal/money"
	"github.com/mmynk/zapsplit/internal/payment"
	"github.com/mmynk/zapsplit/internal/storage"
	"github.com/mmynk/zapsplit/pkg/api"
	"github.com/mmynk/zapsplit/pkg/api/apiconnect"
)

// Ensure PayService implements the Connect handler
var _ apiconnect.PayServiceHandler = (*PayService)(nil)

// PayConfig holds the pricing rules for payments.
type PayConfig struct {
	Currency         string
	PlatformFeeCents int64
	Policy           calculator.Policy
}

// PayService implements the public pay-your-share flow behind a payment link.
type PayService struct {
	store   storage.Store
	gateway payment.Gateway
	cfg     PayConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewPayService creates a PayService. m may be nil.
func NewPayService(store storage.Store, gateway payment.Gateway, cfg PayConfig, m *metrics.Metrics, logger *slog.Logger) *PayService {
	return &PayService{
		store:   store,
		gateway: gateway,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
	}
}

// linkedSplit is a split opened through a payment link, with its claims.
type linkedSplit struct {
	link   *models.PaymentLink
	split  *models.Split
	claims []calculator.Claim
}

// openLink resolves a short code to its split and current claims.
func (s *PayService) openLink(ctx context.Context, code string) (*linkedSplit, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("payment link code is required"))
	}

	link, err := s.store.GetPaymentLinkByCode(ctx, code)
	if err != nil {
		return nil, storeError(err)
	}

	split, err := s.store.GetSplit(ctx, link.SplitID)
	if err != nil {
		s.logger.Error("Failed to load split for link", "code", code, "split_id", link.SplitID, "error", err)
		return nil, storeError(err)
	}

	recorded, err := s.store.ListClaims(ctx, split.ID)
	if err != nil {
		s.logger.Error("Failed to load claims", "split_id", split.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	return &linkedSplit{link: link, split: split, claims: claimsFromModels(recorded)}, nil
}

// GetSplit returns the split behind a payment link with each item's availability.
func (s *PayService) GetSplit(ctx context.Context, req *connect.Request[api.GetSplitRequest]) (*connect.Response[api.GetSplitResponse], error) {
	ls, err := s.openLink(ctx, req.Msg.Code)
	if err != nil {
		return nil, err
	}

	creatorName := ""
	if creator, err := s.store.GetUserByID(ctx, ls.split.CreatorID); err == nil {
		creatorName = creator.DisplayName
	} else {
		s.logger.Warn("Failed to load split creator", "split_id", ls.split.ID, "error", err)
	}

	return connect.NewResponse(&api.GetSplitResponse{
		SplitID:          ls.split.ID,
		Title:            ls.split.Title,
		Description:      ls.split.Description,
		CreatorName:      creatorName,
		TotalAmountCents: ls.split.TotalAmountCents,
		TotalFormatted:   money.Format(ls.split.TotalAmountCents),
		Items:            availabilityToAPI(ls.split, ls.claims),
		Settled:          ls.split.Status == models.SplitStatusSettled,
		PlatformFeeCents: s.cfg.PlatformFeeCents,
		Currency:         s.cfg.Currency,
	}), nil
}

// Quote prices a selection against the split's current claims.
func (s *PayService) Quote(ctx context.Context, req *connect.Request[api.QuoteRequest]) (*connect.Response[api.QuoteResponse], error) {
	ls, err := s.openLink(ctx, req.Msg.Code)
	if err != nil {
		return nil, err
	}

	quote := s.cfg.Policy.Evaluate(billFromSplit(ls.split), ls.claims, selectionFromAPI(req.Msg.Selections))
	return connect.NewResponse(s.quoteToAPI(quote)), nil
}

func (s *PayService) quoteToAPI(quote calculator.Quote) *api.QuoteResponse {
	rounded := quote.Settlement.Rounded()
	charge := rounded.Total + s.cfg.PlatformFeeCents

	lines := make([]api.QuoteLine, len(quote.Lines))
	for i, line := range quote.Lines {
		allocated := line.Allocated.Round()
		lines[i] = api.QuoteLine{
			Index:              line.Item.Index,
			Name:               line.Item.Name,
			Quantity:           line.Quantity,
			ShareCount:         line.ShareCount,
			AllocatedCents:     allocated,
			AllocatedFormatted: money.Format(allocated),
		}
	}

	return &api.QuoteResponse{
		Lines:            lines,
		Violations:       violationsToAPI(quote.Violations),
		Valid:            quote.Valid(),
		ItemsTotalCents:  rounded.ItemsTotal,
		TaxShareCents:    rounded.TaxShare,
		TipShareCents:    rounded.TipShare,
		TotalCents:       rounded.Total,
		PlatformFeeCents: s.cfg.PlatformFeeCents,
		ChargeCents:      charge,
		Currency:         s.cfg.Currency,
		TotalFormatted:   money.Format(rounded.Total),
		ChargeFormatted:  money.Format(charge),
	}
}

// CreatePayment validates the selection, records a pending payment with the
// claims it will make, and opens a gateway intent for the payer to confirm.
func (s *PayService) CreatePayment(ctx context.Context, req *connect.Request[api.CreatePaymentRequest]) (*connect.Response[api.CreatePaymentResponse], error) {
	payerName := strings.TrimSpace(req.Msg.PayerName)
	payerEmail := calculator.NormalizeEmail(req.Msg.PayerEmail)
	s.logger.Info("CreatePayment request", "code", req.Msg.Code, "payer_email", payerEmail, "items", len(req.Msg.Selections))

	if payerName == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("payer name is required"))
	}
	if !validEmail(payerEmail) {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid payer email %q", req.Msg.PayerEmail))
	}
	if len(req.Msg.Selections) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("select at least one item"))
	}

	ls, err := s.openLink(ctx, req.Msg.Code)
	if err != nil {
		return nil, err
	}

	quote := s.cfg.Policy.Evaluate(billFromSplit(ls.split), ls.claims, selectionFromAPI(req.Msg.Selections))
	if !quote.Valid() {
		msgs := make([]string, len(quote.Violations))
		for i, v := range quote.Violations {
			msgs[i] = violationMessage(v)
		}
		return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New(strings.Join(msgs, "; ")))
	}

	amount := quote.Settlement.Rounded().Total
	if amount <= 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("selected items total nothing to pay"))
	}

	creator, err := s.store.GetUserByID(ctx, ls.split.CreatorID)
	if err != nil {
		s.logger.Error("Failed to load split creator", "split_id", ls.split.ID, "error", err)
		return nil, storeError(err)
	}
	if creator.PayoutAccountID == "" {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("the bill creator has not set up payouts yet"))
	}

	p := &models.Payment{
		SplitID:          ls.split.ID,
		PaymentLinkID:    ls.link.ID,
		PayerName:        payerName,
		PayerEmail:       payerEmail,
		AmountCents:      amount,
		PlatformFeeCents: s.cfg.PlatformFeeCents,
		Currency:         s.cfg.Currency,
		RecipientUserID:  creator.ID,
		Claims:           pendingClaims(ls, quote, payerName, payerEmail),
	}
	if err := s.store.CreatePayment(ctx, p); err != nil {
		s.logger.Error("Failed to create payment", "split_id", ls.split.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	intent, err := s.gateway.CreateIntent(ctx, payment.IntentRequest{
		AmountCents:      p.AmountCents,
		PlatformFeeCents: p.PlatformFeeCents,
		Currency:         p.Currency,
		Destination:      creator.PayoutAccountID,
		IdempotencyKey:   p.ID,
		Metadata: map[string]string{
			"split_id":    p.SplitID,
			"payment_id":  p.ID,
			"payer_email": p.PayerEmail,
			"payer_name":  p.PayerName,
		},
	})
	if err != nil {
		s.logger.Error("Failed to create payment intent", "payment_id", p.ID, "error", err)
		s.markPayment(ctx, p.ID, models.PaymentFailed)
		if errors.Is(err, payment.ErrDeclined) {
			return nil, connect.NewError(connect.CodeFailedPrecondition, err)
		}
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}

	if err := s.store.AttachIntent(ctx, p.ID, intent.ID); err != nil {
		s.logger.Error("Failed to attach intent", "payment_id", p.ID, "intent_id", intent.ID, "error", err)
		// Without the intent ID the payment can never be confirmed.
		s.markPayment(ctx, p.ID, models.PaymentFailed)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	s.metrics.PaymentStatus(string(models.PaymentPending))

	s.logger.Info("Payment created",
		"payment_id", p.ID,
		"split_id", p.SplitID,
		"amount_cents", p.AmountCents,
		"charge_cents", p.ChargeCents(),
	)
	return connect.NewResponse(&api.CreatePaymentResponse{
		PaymentID:        p.ID,
		ClientSecret:     intent.ClientSecret,
		AmountCents:      p.AmountCents,
		PlatformFeeCents: p.PlatformFeeCents,
		ChargeCents:      p.ChargeCents(),
		Currency:         p.Currency,
	}), nil
}

// pendingClaims are the claims a payment records once it succeeds.
func pendingClaims(ls *linkedSplit, quote calculator.Quote, name, email string) []models.ItemClaim {
	newClaims := quote.NewClaims(name, email)
	claims := make([]models.ItemClaim, len(newClaims))
	for i, c := range newClaims {
		line := quote.Lines[i]
		claims[i] = models.ItemClaim{
			SplitID:         ls.split.ID,
			PaymentLinkID:   ls.link.ID,
			ItemIndex:       c.ItemIndex,
			ItemName:        line.Item.Name,
			AmountCents:     line.Allocated.Round(),
			ClaimantName:    c.ClaimantName,
			ClaimantEmail:   c.ClaimantEmail,
			QuantityClaimed: c.QuantityClaimed,
			ShareCount:      c.ShareCount,
		}
	}
	return claims
}

// ConfirmPayment checks the gateway intent and, once it has succeeded,
// records the payment's claims. Calling it again after success is a no-op.
func (s *PayService) ConfirmPayment(ctx context.Context, req *connect.Request[api.ConfirmPaymentRequest]) (*connect.Response[api.ConfirmPaymentResponse], error) {
	if req.Msg.PaymentID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("payment_id is required"))
	}

	p, err := s.store.GetPayment(ctx, req.Msg.PaymentID)
	if err != nil {
		return nil, storeError(err)
	}

	switch p.Status {
	case models.PaymentSucceeded, models.PaymentFailed:
		return confirmResponse(p.ID, p.Status), nil
	case models.PaymentConflict:
		return nil, conflictError(p.ID)
	}

	if p.IntentID == "" {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("payment has no intent"))
	}

	intent, err := s.gateway.GetIntent(ctx, p.IntentID)
	if err != nil {
		s.logger.Error("Failed to get payment intent", "payment_id", p.ID, "intent_id", p.IntentID, "error", err)
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}

	switch intent.Status {
	case payment.IntentSucceeded:
		if intent.AmountCents != p.ChargeCents() {
			s.logger.Error("Intent amount does not match payment",
				"payment_id", p.ID, "intent_cents", intent.AmountCents, "charge_cents", p.ChargeCents())
			return nil, connect.NewError(connect.CodeInternal, errors.New("payment amount mismatch"))
		}
		return s.completePayment(ctx, p)

	case payment.IntentCanceled:
		s.markPayment(ctx, p.ID, models.PaymentFailed)
		return confirmResponse(p.ID, models.PaymentFailed), nil

	case payment.IntentDeclined:
		// The intent stays open for another payment method.
		s.logger.Info("Payment attempt declined", "payment_id", p.ID, "intent_id", p.IntentID)
		return confirmResponse(p.ID, models.PaymentPending), nil

	default:
		return confirmResponse(p.ID, models.PaymentPending), nil
	}
}

// completePayment records the claims of a captured payment.
func (s *PayService) completePayment(ctx context.Context, p *models.Payment) (*connect.Response[api.ConfirmPaymentResponse], error) {
	err := s.store.CompletePayment(ctx, p.ID)
	if errors.Is(err, storage.ErrInsufficientQuantity) {
		// The charge went through but someone else paid for the items first.
		s.logger.Warn("Claim conflict after payment", "payment_id", p.ID, "split_id", p.SplitID, "error", err)
		s.metrics.ClaimConflict()
		s.markPayment(ctx, p.ID, models.PaymentConflict)
		return nil, conflictError(p.ID)
	}
	if err != nil {
		s.logger.Error("Failed to complete payment", "payment_id", p.ID, "error", err)
		return nil, storeError(err)
	}

	s.metrics.ClaimsRecorded(len(p.Claims))
	s.metrics.PaymentStatus(string(models.PaymentSucceeded))
	s.logger.Info("Payment succeeded", "payment_id", p.ID, "split_id", p.SplitID, "claims", len(p.Claims))
	return confirmResponse(p.ID, models.PaymentSucceeded), nil
}

// markPayment moves a payment to a terminal status, logging failures.
func (s *PayService) markPayment(ctx context.Context, paymentID string, status models.PaymentStatus) {
	if err := s.store.UpdatePaymentStatus(ctx, paymentID, status); err != nil {
		s.logger.Error("Failed to update payment status", "payment_id", paymentID, "status", status, "error", err)
		return
	}
	s.metrics.PaymentStatus(string(status))
}

func conflictError(paymentID string) *connect.Error {
	return connect.NewError(connect.CodeAborted,
		fmt.Errorf("payment %s: items were claimed by someone else: %w", paymentID, storage.ErrInsufficientQuantity))
}

func confirmResponse(paymentID string, status models.PaymentStatus) *connect.Response[api.ConfirmPaymentResponse] {
	return connect.NewResponse(&api.ConfirmPaymentResponse{
		PaymentID: paymentID,
		Status:    string(status),
	})
}
