// Package identity signs users up and in, and verifies their access tokens.
package identity

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"pharmago/internal/docstore"
	"pharmago/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Collections owned by the provider.
const (
	// UsersCollection holds one document per account.
	UsersCollection = "users"

	// RevokedTokensCollection holds one document per signed-out token, keyed by its ID.
	RevokedTokensCollection = "revoked_tokens"
)

// AuthListener is told about sign-ins (user set) and sign-outs (user nil).
type AuthListener func(userID string, user *model.User)

// Provider defines the identity operations the storefront relies on.
type Provider interface {
	// SignUp creates an account. The caller signs in separately.
	SignUp(ctx context.Context, req model.SignUpRequest) (model.User, error)

	// SignIn checks credentials and issues an access token.
	SignIn(ctx context.Context, email, password string) (model.AuthSession, error)

	// SignOut revokes the token so it can no longer be verified.
	SignOut(ctx context.Context, token string) error

	// Verify returns the user a valid, unrevoked token belongs to.
	Verify(ctx context.Context, token string) (model.User, error)

	// OnAuthStateChanged registers a listener and returns its unsubscribe func.
	OnAuthStateChanged(listener AuthListener) func()
}

// Config holds token and hashing settings.
type Config struct {
	Secret     []byte
	TokenTTL   time.Duration
	BcryptCost int
	Issuer     string
}

// DefaultConfig returns a configuration for the given signing secret.
func DefaultConfig(secret []byte) *Config {
	return &Config{
		Secret:     secret,
		TokenTTL:   24 * time.Hour,
		BcryptCost: bcrypt.DefaultCost,
		Issuer:     "pharmago",
	}
}

// revocation is the stored record of a signed-out token.
type revocation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// userRecord is the stored shape of an account.
type userRecord struct {
	model.User
	PasswordHash string `json:"passwordHash"`
}

type provider struct {
	store    docstore.Store
	tokens   *tokenIssuer
	config   *Config
	validate *validator.Validate
	logger   zerolog.Logger

	// signUpMu serialises the email uniqueness check with the insert.
	signUpMu sync.Mutex

	mu        sync.Mutex
	revoked   map[string]time.Time // cache of signed-out token IDs, backed by the store
	listeners map[int]AuthListener
	nextID    int
}

// NewProvider creates an identity provider storing accounts in store.
func NewProvider(store docstore.Store, config *Config, logger zerolog.Logger) (Provider, error) {
	if config == nil || len(config.Secret) == 0 {
		return nil, errors.New("identity: signing secret is required")
	}
	if config.TokenTTL <= 0 {
		config.TokenTTL = 24 * time.Hour
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}

	return &provider{
		store:     store,
		tokens:    newTokenIssuer(config.Secret, config.Issuer, config.TokenTTL, time.Now),
		config:    config,
		validate:  newValidator(),
		logger:    logger.With().Str("component", "identity").Logger(),
		revoked:   make(map[string]time.Time),
		listeners: make(map[int]AuthListener),
	}, nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var signUpMessages = map[string]string{
	"email.required":         "Email is required",
	"email.email":            "Please enter a valid email address",
	"password.required":      "Password is required",
	"password.min":           "Password must be at least 6 characters",
	"firstName.required":     "First name is required",
	"role.oneof":             "Role must be user or pharmacy",
	"pharmacyId.required_if": "Pharmacy accounts need a pharmacy ID",
}

func (p *provider) validateSignUp(req model.SignUpRequest) error {
	err := p.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := model.NewValidationError()
	for _, fe := range fieldErrs {
		msg, known := signUpMessages[fe.Field()+"."+fe.Tag()]
		if !known {
			msg = fe.Error()
		}
		verr.Add(fe.Field(), msg)
	}
	return verr
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (p *provider) SignUp(ctx context.Context, req model.SignUpRequest) (model.User, error) {
	req.Email = normaliseEmail(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.Role == "" {
		req.Role = model.RoleUser
	}

	if err := p.validateSignUp(req); err != nil {
		return model.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), p.config.BcryptCost)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	p.signUpMu.Lock()
	defer p.signUpMu.Unlock()

	existing, err := p.store.FindBy(ctx, UsersCollection, "email", req.Email)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to look up account: %w", err)
	}
	if len(existing) > 0 {
		return model.User{}, model.ErrEmailTaken
	}

	user := model.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      req.Role,
		CreatedAt: time.Now().UTC(),
	}
	if req.Role == model.RolePharmacy {
		user.PharmacyID = req.PharmacyID
	}

	doc, err := docstore.Encode(userRecord{User: user, PasswordHash: string(hash)})
	if err != nil {
		return model.User{}, err
	}
	if _, err := p.store.Create(ctx, UsersCollection, doc); err != nil {
		p.logger.Error().Err(err).Str("email", user.Email).Msg("failed to store account")
		return model.User{}, fmt.Errorf("failed to create account: %w", err)
	}

	p.logger.Info().
		Str("user_id", user.ID).
		Str("role", string(user.Role)).
		Msg("account created")

	return user, nil
}

func (p *provider) SignIn(ctx context.Context, email, password string) (model.AuthSession, error) {
	docs, err := p.store.FindBy(ctx, UsersCollection, "email", normaliseEmail(email))
	if err != nil {
		return model.AuthSession{}, fmt.Errorf("failed to look up account: %w", err)
	}
	if len(docs) == 0 {
		p.logger.Debug().Msg("sign-in for unknown email")
		return model.AuthSession{}, model.ErrInvalidCredentials
	}

	var record userRecord
	if err := docstore.Decode(docs[0], &record); err != nil {
		return model.AuthSession{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		p.logger.Debug().Str("user_id", record.ID).Msg("sign-in with wrong password")
		return model.AuthSession{}, model.ErrInvalidCredentials
	}

	token, expiresAt, err := p.tokens.issue(record.User)
	if err != nil {
		return model.AuthSession{}, err
	}

	p.logger.Info().Str("user_id", record.ID).Msg("user signed in")

	user := record.User
	p.notify(user.ID, &user)

	return model.AuthSession{Token: token, ExpiresAt: expiresAt, User: record.User}, nil
}

func (p *provider) SignOut(ctx context.Context, token string) error {
	claims, err := p.tokens.parse(token)
	if err != nil {
		return model.ErrUnauthorised
	}

	doc, err := docstore.Encode(revocation{
		ID:        claims.ID,
		UserID:    claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	})
	if err != nil {
		return err
	}
	if _, err := p.store.Create(ctx, RevokedTokensCollection, doc); err != nil && !errors.Is(err, model.ErrDocumentExists) {
		p.logger.Error().Err(err).Str("user_id", claims.Subject).Msg("failed to store token revocation")
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	p.remember(claims.ID, claims.ExpiresAt.Time)

	p.logger.Info().Str("user_id", claims.Subject).Msg("user signed out")

	p.notify(claims.Subject, nil)

	return nil
}

// remember caches a revoked token ID and drops entries whose token has expired.
func (p *provider) remember(jti string, until time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	for id, expiry := range p.revoked {
		if expiry.Before(now) {
			delete(p.revoked, id)
		}
	}
	p.revoked[jti] = until
}

// isRevoked checks the cache first, then the store.
func (p *provider) isRevoked(ctx context.Context, claims *Claims) (bool, error) {
	p.mu.Lock()
	_, cached := p.revoked[claims.ID]
	p.mu.Unlock()
	if cached {
		return true, nil
	}

	_, err := p.store.Get(ctx, RevokedTokensCollection, claims.ID)
	switch {
	case err == nil:
		p.remember(claims.ID, claims.ExpiresAt.Time)
		return true, nil
	case errors.Is(err, model.ErrDocumentNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
}

func (p *provider) Verify(ctx context.Context, token string) (model.User, error) {
	claims, err := p.tokens.parse(token)
	if err != nil {
		p.logger.Debug().Err(err).Msg("token rejected")
		return model.User{}, model.ErrUnauthorised
	}

	revoked, err := p.isRevoked(ctx, claims)
	if err != nil {
		return model.User{}, err
	}
	if revoked {
		return model.User{}, model.ErrUnauthorised
	}

	doc, err := p.store.Get(ctx, UsersCollection, claims.Subject)
	if err != nil {
		if errors.Is(err, model.ErrDocumentNotFound) {
			return model.User{}, model.ErrUnauthorised
		}
		return model.User{}, fmt.Errorf("failed to load account: %w", err)
	}

	var record userRecord
	if err := docstore.Decode(doc, &record); err != nil {
		return model.User{}, err
	}
	return record.User, nil
}

func (p *provider) OnAuthStateChanged(listener AuthListener) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = listener
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *provider) notify(userID string, user *model.User) {
	p.mu.Lock()
	listeners := make([]AuthListener, 0, len(p.listeners))
	for _, l := range p.listeners {
		listeners = append(listeners, l)
	}
	p.mu.Unlock()

	for _, l := range listeners {
		l(userID, user)
	}
}
