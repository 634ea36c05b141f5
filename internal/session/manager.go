package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jfcardenas/storefront-core/pkg/api"
	"github.com/jfcardenas/storefront-core/pkg/config"
	pkgerrors "github.com/jfcardenas/storefront-core/pkg/errors"
	"github.com/jfcardenas/storefront-core/pkg/kvstore"
	"github.com/jfcardenas/storefront-core/pkg/logger"
	"github.com/jfcardenas/storefront-core/pkg/security"
	"github.com/jfcardenas/storefront-core/pkg/state"
)

type loginClient interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error)
}

// Manager owns the two session slots (admin, user), restores them from the
// snapshot store on startup, and exposes login/logout operations.
type Manager struct {
	store  kvstore.Store
	client loginClient
	logg   *logger.Logger
	cfg    config.SessionConfig

	admin *state.Value[*Session]
	user  *state.Value[*Session]
}

// ManagerParams bundles the dependencies required to build a session manager.
type ManagerParams struct {
	Store  kvstore.Store
	Client loginClient
	Logger *logger.Logger
	Config config.SessionConfig
}

// NewManager constructs the manager and restores persisted sessions. Corrupt
// snapshots are cleared and treated as absent; store failures degrade to
// "no session".
func NewManager(ctx context.Context, params ManagerParams) (*Manager, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("snapshot store is required")
	}
	if params.Client == nil {
		return nil, fmt.Errorf("api client is required")
	}

	m := &Manager{
		store:  params.Store,
		client: params.Client,
		logg:   params.Logger,
		cfg:    params.Config,
		admin:  state.NewValue[*Session](nil),
		user:   state.NewValue[*Session](nil),
	}
	m.restoreAdmin(ctx)
	m.restoreUser(ctx)
	return m, nil
}

// LoginAdmin validates the fixed admin credential. Wrong credentials return
// (false, nil) without touching state; only transport-class failures error.
func (m *Manager) LoginAdmin(ctx context.Context, username, password string) (bool, error) {
	if username != m.cfg.AdminUsername || !m.adminPasswordMatches(ctx, password) {
		return false, nil
	}

	sess := &Session{
		SubjectID:   "1",
		DisplayName: username,
		Role:        RoleAdmin,
		Token:       "local-admin-token-" + uuid.NewString(),
	}

	if err := m.store.Set(ctx, kvstore.KeyAdminToken, sess.Token); err != nil {
		m.warn(ctx, "persisting admin token failed", err)
	}
	snapshot := persistedUser{SubjectID: sess.SubjectID, DisplayName: sess.DisplayName, Role: sess.Role}
	if err := kvstore.SetJSON(ctx, m.store, kvstore.KeyAdminUser, snapshot); err != nil {
		m.warn(ctx, "persisting admin user failed", err)
	}

	m.admin.Set(sess)
	return true, nil
}

// LoginUser posts credentials to the backend. Transport and auth failures
// propagate to the caller for display; state is only mutated on success.
func (m *Manager) LoginUser(ctx context.Context, email, password string) (*Session, error) {
	resp, err := m.client.Login(ctx, api.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	sess := &Session{
		SubjectID:   resp.Username,
		DisplayName: resp.Username,
		Role:        RoleUser,
		Token:       resp.Token,
	}

	if err := m.store.Set(ctx, kvstore.KeyUserToken, sess.Token); err != nil {
		m.warn(ctx, "persisting user token failed", err)
	}
	if err := m.store.Set(ctx, kvstore.KeyUserName, sess.DisplayName); err != nil {
		m.warn(ctx, "persisting user name failed", err)
	}

	m.user.Set(sess)
	return sess, nil
}

// LogoutAdmin clears the admin slot and its snapshot. Safe to call repeatedly.
func (m *Manager) LogoutAdmin(ctx context.Context) {
	m.clearAdmin(ctx)
}

// LogoutUser clears the user slot and its snapshot. Safe to call repeatedly.
func (m *Manager) LogoutUser(ctx context.Context) {
	m.clearUser(ctx)
}

// IsAdminAuthenticated reports whether an admin session is active.
func (m *Manager) IsAdminAuthenticated() bool {
	return m.admin.Get() != nil
}

// IsUserAuthenticated reports whether an end-user session is active.
func (m *Manager) IsUserAuthenticated() bool {
	return m.user.Get() != nil
}

// AdminSession exposes the observable admin slot for read-only binding.
func (m *Manager) AdminSession() *state.Value[*Session] {
	return m.admin
}

// UserSession exposes the observable user slot for read-only binding.
func (m *Manager) UserSession() *state.Value[*Session] {
	return m.user
}

// UserToken returns the active user bearer token, or "" when logged out.
func (m *Manager) UserToken() string {
	if sess := m.user.Get(); sess != nil {
		return sess.Token
	}
	return ""
}

func (m *Manager) adminPasswordMatches(ctx context.Context, password string) bool {
	if m.cfg.AdminPasswordHash != "" {
		ok, err := security.VerifyPassword(password, m.cfg.AdminPasswordHash)
		if err == nil {
			return ok
		}
		m.warn(ctx, "configured admin password hash is malformed, falling back to plaintext compare", err)
	}
	return password == m.cfg.AdminPassword
}

func (m *Manager) restoreAdmin(ctx context.Context) {
	token, err := m.store.Get(ctx, kvstore.KeyAdminToken)
	if err != nil {
		m.swallowStoreErr(ctx, "admin token", err)
		return
	}

	var snapshot persistedUser
	if err := kvstore.GetJSON(ctx, m.store, kvstore.KeyAdminUser, &snapshot); err != nil {
		// Present-but-corrupt user data invalidates the whole slot.
		m.clearAdmin(ctx)
		m.swallowStoreErr(ctx, "admin user", err)
		return
	}

	m.admin.Set(&Session{
		SubjectID:   snapshot.SubjectID,
		DisplayName: snapshot.DisplayName,
		Role:        RoleAdmin,
		Token:       token,
	})
}

func (m *Manager) restoreUser(ctx context.Context) {
	token, err := m.store.Get(ctx, kvstore.KeyUserToken)
	if err != nil {
		m.swallowStoreErr(ctx, "user token", err)
		return
	}
	name, err := m.store.Get(ctx, kvstore.KeyUserName)
	if err != nil {
		m.swallowStoreErr(ctx, "user name", err)
		return
	}

	if expired, err := tokenExpired(token); err != nil || expired {
		m.clearUser(ctx)
		if err != nil {
			m.warn(ctx, "persisted user token is not a valid JWT, discarding", err)
		}
		return
	}

	m.user.Set(&Session{
		SubjectID:   name,
		DisplayName: name,
		Role:        RoleUser,
		Token:       token,
	})
}

func (m *Manager) clearAdmin(ctx context.Context) {
	if err := m.store.Delete(ctx, kvstore.KeyAdminToken); err != nil {
		m.warn(ctx, "clearing admin token failed", err)
	}
	if err := m.store.Delete(ctx, kvstore.KeyAdminUser); err != nil {
		m.warn(ctx, "clearing admin user failed", err)
	}
	m.admin.Set(nil)
}

func (m *Manager) clearUser(ctx context.Context) {
	if err := m.store.Delete(ctx, kvstore.KeyUserToken); err != nil {
		m.warn(ctx, "clearing user token failed", err)
	}
	if err := m.store.Delete(ctx, kvstore.KeyUserName); err != nil {
		m.warn(ctx, "clearing user name failed", err)
	}
	m.user.Set(nil)
}

// tokenExpired performs an unverified claims parse: the client cannot check
// the signature, only whether the stored token is already past its exp.
func tokenExpired(token string) (bool, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDecode, err, "parse stored token")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, nil
	}
	return exp.Before(time.Now()), nil
}

func (m *Manager) swallowStoreErr(ctx context.Context, what string, err error) {
	if errors.Is(err, kvstore.ErrNotFound) {
		return
	}
	m.warn(ctx, "reading persisted "+what+" failed, treating as absent", err)
}

func (m *Manager) warn(ctx context.Context, msg string, err error) {
	if m.logg == nil {
		return
	}
	m.logg.Error(ctx, msg, err)
}
