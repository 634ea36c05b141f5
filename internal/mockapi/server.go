// Package mockapi is an in-memory rendition of the store backend used
// for local development. It serves the same routes and payload shapes
// the real backend exposes, seeded with a small product catalog.
package mockapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jfcardenas/storefront-core/pkg/api"
	"github.com/jfcardenas/storefront-core/pkg/config"
	"github.com/jfcardenas/storefront-core/pkg/errors"
	"github.com/jfcardenas/storefront-core/pkg/logger"
)

// ServerParams holds the dependencies for the development backend.
type ServerParams struct {
	Logger *logger.Logger
	JWT    config.JWTConfig
}

type Server struct {
	logg *logger.Logger
	jwt  config.JWTConfig
	mem  *memory
	now  func() time.Time
}

func NewServer(params ServerParams) (*Server, error) {
	if params.JWT.Secret == "" {
		return nil, errors.New(errors.CodeInternal, "mockapi: jwt secret is required")
	}
	if params.Logger == nil {
		params.Logger = logger.New(logger.Options{ServiceName: "mockapi"})
	}

	return &Server{
		logg: params.Logger,
		jwt:  params.JWT,
		mem:  newMemory(),
		now:  time.Now,
	}, nil
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/users/create", s.handleCreateUser)
		r.Get("/products/list-all", s.handleListProducts)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Route("/cart", func(r chi.Router) {
				r.Post("/items", s.handleAddCartItem)
				r.Put("/items/{productID}", s.handleUpdateCartItem)
				r.Delete("/items/{productID}", s.handleRemoveCartItem)
				r.Get("/summary", s.handleCartSummary)
			})
			r.Post("/payments/process", s.handleProcessPayment)
		})
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := r.Header.Get("X-Request-Id"); id != "" {
			ctx = s.logg.WithRequestID(ctx, id)
		}
		s.logg.Debug(ctx, r.Method+" "+r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireToken checks the Authorization header carries a token this
// server minted. The subject is stashed nowhere, the raw token itself
// keys the per-session cart.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(r.Context(), s.logg, w, errors.New(errors.CodeUnauthorized, "se requiere autenticación"))
			return
		}
		if _, err := s.parseToken(token); err != nil {
			writeError(r.Context(), s.logg, w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func (s *Server) mintToken(acct *account) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   acct.Email,
		Issuer:    s.jwt.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.jwt.Expiration())),
		ID:        uuid.NewString(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwt.Secret))
	if err != nil {
		return "", errors.Wrap(errors.CodeInternal, err, "sign token")
	}
	return token, nil
}

func (s *Server) parseToken(raw string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New(errors.CodeUnauthorized, "unexpected signing method")
		}
		return []byte(s.jwt.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, errors.Wrap(errors.CodeUnauthorized, err, "token inválido o expirado")
	}
	return claims, nil
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}

	acct, err := s.mem.authenticate(req.Email, req.Password)
	if err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}

	token, err := s.mintToken(acct)
	if err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}

	writeJSON(w, http.StatusOK, api.LoginResponse{
		Token:     token,
		Username:  acct.Username,
		Message:   "Inicio de sesión exitoso",
		ExpiresIn: int64(s.jwt.Expiration().Seconds()),
	})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}

	acct, err := s.mem.createAccount(req.Username, req.Email, req.Password, req.RoleIDs)
	if err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}

	s.logg.Info(r.Context(), "account created: "+acct.Username)
	writeJSON(w, http.StatusCreated, api.RegisterResponse{
		Message: "Usuario creado exitosamente",
		UserID:  acct.ID,
	})
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.mem.listProducts())
}

func (s *Server) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}

	if err := s.mem.addCartItem(bearerToken(r), req.ProductID, req.Quantity); err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.mem.cartSummary(bearerToken(r)))
}

func (s *Server) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productID")
	if err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}

	var req updateCartItemRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}

	if err := s.mem.updateCartItem(bearerToken(r), productID, req.Quantity); err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.mem.cartSummary(bearerToken(r)))
}

func (s *Server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "productID")
	if err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}

	if err := s.mem.removeCartItem(bearerToken(r), productID); err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.mem.cartSummary(bearerToken(r)))
}

func (s *Server) handleCartSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.mem.cartSummary(bearerToken(r)))
}

func (s *Server) handleProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(r.Context(), s.logg, w, err)
		return
	}

	s.mem.clearCart(bearerToken(r))
	reference := "PAY-" + strings.ToUpper(uuid.NewString()[:8])
	s.logg.Info(r.Context(), "payment processed, reference "+reference)

	writeJSON(w, http.StatusOK, api.PaymentResponse{
		Message:         "Pago procesado exitosamente",
		ReferenceNumber: reference,
	})
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New(errors.CodeValidation, "identificador inválido")
	}
	return id, nil
}
