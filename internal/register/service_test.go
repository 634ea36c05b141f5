package register

import (
	"context"
	"testing"

	"github.com/jfcardenas/storefront-core/pkg/api"
	"github.com/jfcardenas/storefront-core/pkg/errors"
)

type stubRegisterClient struct {
	lastReq api.RegisterRequest
	err     error
	called  int
}

func (c *stubRegisterClient) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	c.called++
	c.lastReq = req
	if c.err != nil {
		return nil, c.err
	}
	return &api.RegisterResponse{Message: "Usuario creado exitosamente"}, nil
}

func validInput() Input {
	return Input{
		Username:        "mariana",
		Email:           "mariana@example.com",
		Password:        "secreto123",
		ConfirmPassword: "secreto123",
	}
}

func TestRegisterAssignsCustomerRole(t *testing.T) {
	t.Parallel()

	client := &stubRegisterClient{}
	svc, err := NewService(ServiceParams{Client: client})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	resp, err := svc.Register(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.Message == "" {
		t.Fatal("expected a confirmation message")
	}
	if len(client.lastReq.RoleIDs) != 1 || client.lastReq.RoleIDs[0] != 2 {
		t.Fatalf("expected customer role [2], got %v", client.lastReq.RoleIDs)
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Input)
	}{
		{"short username", func(in *Input) { in.Username = "ab" }},
		{"bad email", func(in *Input) { in.Email = "not-an-email" }},
		{"short password", func(in *Input) { in.Password = "abc"; in.ConfirmPassword = "abc" }},
		{"missing confirmation", func(in *Input) { in.ConfirmPassword = "" }},
		{"mismatched confirmation", func(in *Input) { in.ConfirmPassword = "otra-cosa" }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client := &stubRegisterClient{}
			svc, err := NewService(ServiceParams{Client: client})
			if err != nil {
				t.Fatalf("NewService: %v", err)
			}

			input := validInput()
			tc.mutate(&input)

			_, err = svc.Register(context.Background(), input)
			if !errors.IsCode(err, errors.CodeValidation) {
				t.Fatalf("expected a validation error, got %v", err)
			}
			if client.called != 0 {
				t.Fatal("invalid input must not reach the backend")
			}
		})
	}
}

func TestRegisterBackendErrorPassesThrough(t *testing.T) {
	t.Parallel()

	client := &stubRegisterClient{err: errors.New(errors.CodeConflict, "username taken")}
	svc, err := NewService(ServiceParams{Client: client})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	_, err = svc.Register(context.Background(), validInput())
	if !errors.IsCode(err, errors.CodeConflict) {
		t.Fatalf("expected the backend error unchanged, got %v", err)
	}
}
