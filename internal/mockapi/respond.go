package mockapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jfcardenas/storefront-core/pkg/errors"
	"github.com/jfcardenas/storefront-core/pkg/logger"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Request bodies carry their own validation tags; decodeJSONBody runs them
// so the handlers only see well-formed input.
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	RoleIDs  []int  `json:"roleIds"`
}

type addCartItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,min=1"`
}

// Quantity 0 is a valid update: it deletes the line.
type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

type paymentRequest struct {
	CardNumber     string `json:"cardNumber" validate:"required"`
	CardHolderName string `json:"cardHolderName" validate:"required"`
	ExpirationDate string `json:"expirationDate" validate:"required"`
	CVV            string `json:"cvv" validate:"required"`
	Installments   int    `json:"installments" validate:"min=0"`
	PaymentType    string `json:"paymentType" validate:"required"`
	Amount         int64  `json:"amount" validate:"required,gt=0"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	typed := errors.As(err)
	if typed == nil {
		typed = errors.Wrap(errors.CodeInternal, err, "unexpected error")
	}

	meta := errors.MetadataFor(typed.Code())
	message := meta.PublicMessage
	// Client errors keep their specific message, server errors stay opaque.
	if meta.HTTPStatus < http.StatusInternalServerError && typed.Message() != "" {
		message = typed.Message()
	}

	if logg != nil && meta.HTTPStatus >= http.StatusInternalServerError {
		logg.Error(ctx, "request failed", err)
	}

	writeJSON(w, meta.HTTPStatus, errorBody{
		Code:    string(typed.Code()),
		Message: message,
	})
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

func decodeJSONBody(r *http.Request, dest any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dest); err != nil {
		return errors.Wrap(errors.CodeValidation, err, "cuerpo de la petición inválido")
	}
	if err := validate.Struct(dest); err != nil {
		if _, ok := err.(validator.ValidationErrors); ok {
			return errors.Wrap(errors.CodeValidation, err, "datos incompletos o inválidos")
		}
		return errors.Wrap(errors.CodeValidation, err, "validación fallida")
	}
	return nil
}
