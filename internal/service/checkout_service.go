package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/bioclass-api/internal/models"
	appErrors "github.com/noah-isme/bioclass-api/pkg/errors"
	"github.com/noah-isme/bioclass-api/pkg/payment"
)

// CheckoutRequest asks for a hosted checkout of one course.
type CheckoutRequest struct {
	CourseID string `json:"course_id" validate:"required,uuid"`
}

// CheckoutService opens payment sessions with the configured gateway.
type CheckoutService struct {
	courses   courseFinder
	gateway   payment.Gateway
	provider  string
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCheckoutService constructs the checkout service.
func NewCheckoutService(courses courseFinder, gateway payment.Gateway, provider string, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &CheckoutService{courses: courses, gateway: gateway, provider: provider, metrics: metrics, validator: validate, logger: logger}
}

// Start creates a checkout for the course. Price and title always come from
// the stored course, never from the client.
func (s *CheckoutService) Start(ctx context.Context, buyer *models.JWTClaims, req CheckoutRequest) (*payment.Checkout, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}
	if s.gateway == nil {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "payment gateway not configured")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil || course.Status != models.CourseStatusActive {
		if err == nil || isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	item := payment.Item{
		CourseID:   course.ID,
		Title:      course.Title,
		PriceCents: course.PriceCents,
		Reference:  uuid.NewString(),
	}
	if buyer != nil {
		item.BuyerEmail = buyer.Email
		item.BuyerName = buyer.FullName
	}

	checkout, err := s.gateway.CreateCheckout(ctx, item)
	s.metrics.RecordCheckout(s.provider, err == nil)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidItem) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "course cannot be sold")
		}
		s.logger.Error("checkout failed", zap.String("provider", s.provider), zap.String("course_id", course.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to start checkout")
	}

	s.logger.Info("checkout started",
		zap.String("provider", s.provider),
		zap.String("course_id", course.ID),
		zap.String("checkout_id", checkout.ID),
	)
	return checkout, nil
}
