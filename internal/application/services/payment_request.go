package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rmaulana/pocketpay/internal/domain/entities"
	"github.com/rmaulana/pocketpay/internal/domain/repositories"
)

// PaymentRequestService manages payment requests. Terminal transitions
// are ownership-checked here, not by database constraints: only the
// requestee fulfills or declines, only the requester cancels.
type PaymentRequestService struct {
	requestRepo repositories.PaymentRequestRepository
	userRepo    repositories.UserRepository
	notifier    Notifier
	logger      *zap.Logger
}

// NewPaymentRequestService creates a new payment-request service
func NewPaymentRequestService(
	requestRepo repositories.PaymentRequestRepository,
	userRepo repositories.UserRepository,
	notifier Notifier,
	logger *zap.Logger,
) *PaymentRequestService {
	return &PaymentRequestService{
		requestRepo: requestRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

// Create records a new pending request and notifies the requestee
func (s *PaymentRequestService) Create(ctx context.Context, requesterID, requesteeID string, amount decimal.Decimal, message string) (*entities.PaymentRequest, error) {
	if requesterID == requesteeID {
		return nil, ErrSelfTarget
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	if _, err := s.userRepo.GetByID(ctx, requesteeID); err != nil {
		return nil, fmt.Errorf("requestee lookup failed: %w", err)
	}

	req := &entities.PaymentRequest{
		RequesterID: requesterID,
		RequesteeID: requesteeID,
		Amount:      amount,
		Message:     message,
		Status:      entities.RequestPending,
	}
	if err := s.requestRepo.Insert(ctx, req); err != nil {
		return nil, err
	}

	body := formatAmount(amount) + " USDC requested"
	if requester, err := s.userRepo.GetByID(ctx, requesterID); err == nil {
		body = requester.Username + " requested " + formatAmount(amount) + " USDC"
	}
	s.notifier.Notify(ctx, []string{requesteeID}, Notification{
		Title: "Payment Request",
		Body:  body,
		Data:  map[string]string{"request_id": fmt.Sprintf("%d", req.ID), "type": "payment_request"},
	})

	return req, nil
}

// Decline marks a pending request declined; requestee only
func (s *PaymentRequestService) Decline(ctx context.Context, userID string, requestID int64) error {
	return s.transition(ctx, userID, requestID, entities.RequestDeclined)
}

// Cancel marks a pending request canceled; requester only
func (s *PaymentRequestService) Cancel(ctx context.Context, userID string, requestID int64) error {
	return s.transition(ctx, userID, requestID, entities.RequestCanceled)
}

func (s *PaymentRequestService) transition(ctx context.Context, userID string, requestID int64, target entities.PaymentRequestStatus) error {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}

	switch target {
	case entities.RequestDeclined:
		if req.RequesteeID != userID {
			return ErrForbidden
		}
	case entities.RequestCanceled:
		if req.RequesterID != userID {
			return ErrForbidden
		}
	}

	if req.Status != entities.RequestPending {
		return ErrInvalidTransition
	}

	return s.requestRepo.UpdateStatus(ctx, requestID, target, nil)
}

// List returns requests involving the caller
func (s *PaymentRequestService) List(ctx context.Context, userID string, limit, offset int) ([]entities.PaymentRequest, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.requestRepo.ListForUser(ctx, userID, limit, offset)
}
