// Package register handles new customer account creation against the
// backend user endpoint.
package register

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/jfcardenas/storefront-core/pkg/api"
	"github.com/jfcardenas/storefront-core/pkg/errors"
	"github.com/jfcardenas/storefront-core/pkg/logger"
)

// customerRoleID is the role assigned to self-registered accounts.
const customerRoleID = 2

type registerClient interface {
	Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error)
}

// Input is the raw form data collected from the user.
type Input struct {
	Username        string `validate:"required,min=3,max=50"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required,min=6"`
	ConfirmPassword string `validate:"required"`
}

// ServiceParams holds the dependencies for the register service.
type ServiceParams struct {
	Client registerClient
	Logger *logger.Logger
}

type Service struct {
	client   registerClient
	logg     *logger.Logger
	validate *validator.Validate
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Client == nil {
		return nil, errors.New(errors.CodeInternal, "register: client is required")
	}
	if params.Logger == nil {
		params.Logger = logger.New(logger.Options{ServiceName: "register"})
	}

	return &Service{
		client:   params.Client,
		logg:     params.Logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// Register validates the form input and creates the account. New accounts
// always receive the customer role.
func (s *Service) Register(ctx context.Context, input Input) (*api.RegisterResponse, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, errors.Wrap(errors.CodeValidation, err, "register: invalid input")
	}
	if input.Password != input.ConfirmPassword {
		return nil, errors.New(errors.CodeValidation, "register: passwords do not match")
	}

	resp, err := s.client.Register(ctx, api.RegisterRequest{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
		RoleIDs:  []int{customerRoleID},
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(ctx, "account created for "+input.Username)
	return resp, nil
}
