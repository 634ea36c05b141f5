// Package checkout validates card details and runs the payment flow.
package checkout

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/jfcardenas/storefront-core/pkg/api"
	"github.com/jfcardenas/storefront-core/pkg/errors"
	"github.com/jfcardenas/storefront-core/pkg/logger"
)

// Payment types accepted by the backend.
const (
	PaymentTypeCredit = "CREDITO"
	PaymentTypeDebit  = "DEBITO"
)

const maxInstallments = 12

type paymentClient interface {
	ProcessPayment(ctx context.Context, token string, req api.PaymentRequest) (*api.PaymentResponse, error)
}

type cartAccess interface {
	TotalPrice() int64
	ClearCart(ctx context.Context)
}

// CardInput is the raw card form data.
type CardInput struct {
	CardNumber     string `validate:"required"`
	CardHolderName string `validate:"required,min=3,max=100"`
	ExpirationDate string `validate:"required"`
	CVV            string `validate:"required"`
	Installments   int
	PaymentType    string `validate:"required,oneof=CREDITO DEBITO"`
}

// ServiceParams holds the dependencies for the checkout service.
type ServiceParams struct {
	Client    paymentClient
	Cart      cartAccess
	Logger    *logger.Logger
	TokenFunc func() string
	Now       func() time.Time
}

type Service struct {
	client   paymentClient
	cart     cartAccess
	logg     *logger.Logger
	token    func() string
	now      func() time.Time
	validate *validator.Validate
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Client == nil {
		return nil, errors.New(errors.CodeInternal, "checkout: client is required")
	}
	if params.Cart == nil {
		return nil, errors.New(errors.CodeInternal, "checkout: cart is required")
	}
	if params.Logger == nil {
		params.Logger = logger.New(logger.Options{ServiceName: "checkout"})
	}
	if params.TokenFunc == nil {
		params.TokenFunc = func() string { return "" }
	}
	if params.Now == nil {
		params.Now = time.Now
	}

	return &Service{
		client:   params.Client,
		cart:     params.Cart,
		logg:     params.Logger,
		token:    params.TokenFunc,
		now:      params.Now,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// Pay validates the card input, charges the current cart total and clears
// the cart once the backend confirms the payment.
func (s *Service) Pay(ctx context.Context, input CardInput) (*api.PaymentResponse, error) {
	if err := s.validateCard(input); err != nil {
		return nil, err
	}

	amount := s.cart.TotalPrice()
	if amount <= 0 {
		return nil, errors.New(errors.CodeValidation, "checkout: the cart is empty")
	}

	installments := input.Installments
	if input.PaymentType == PaymentTypeDebit {
		installments = 0
	}

	resp, err := s.client.ProcessPayment(ctx, s.token(), api.PaymentRequest{
		CardNumber:     strings.ReplaceAll(input.CardNumber, " ", ""),
		CardHolderName: strings.TrimSpace(input.CardHolderName),
		ExpirationDate: input.ExpirationDate,
		CVV:            input.CVV,
		Installments:   installments,
		PaymentType:    input.PaymentType,
		Amount:         amount,
	})
	if err != nil {
		return nil, err
	}

	s.cart.ClearCart(ctx)
	s.logg.Info(ctx, "payment accepted, reference "+resp.ReferenceNumber)
	return resp, nil
}

func (s *Service) validateCard(input CardInput) error {
	if err := s.validate.Struct(input); err != nil {
		return errors.Wrap(errors.CodeValidation, err, "checkout: invalid card details")
	}

	number := strings.ReplaceAll(input.CardNumber, " ", "")
	if len(number) != 16 || !allDigits(number) {
		return errors.New(errors.CodeValidation, "checkout: the card number must have 16 digits")
	}
	if len(input.CVV) != 3 || !allDigits(input.CVV) {
		return errors.New(errors.CodeValidation, "checkout: the CVV must have 3 digits")
	}
	if err := s.validateExpiration(input.ExpirationDate); err != nil {
		return err
	}
	if input.PaymentType == PaymentTypeCredit && (input.Installments < 1 || input.Installments > maxInstallments) {
		return errors.New(errors.CodeValidation, "checkout: installments must be between 1 and 12")
	}
	return nil
}

// validateExpiration expects MM/YY and rejects cards expired before the
// current month.
func (s *Service) validateExpiration(value string) error {
	parts := strings.Split(value, "/")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return errors.New(errors.CodeValidation, "checkout: expiration must use the MM/YY format")
	}

	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return errors.New(errors.CodeValidation, "checkout: invalid expiration month")
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return errors.New(errors.CodeValidation, "checkout: invalid expiration year")
	}

	now := s.now()
	expires := time.Date(2000+year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	if !expires.After(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)) {
		return errors.New(errors.CodeValidation, "checkout: the card is expired")
	}
	return nil
}

func allDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
