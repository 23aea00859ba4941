package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/backend-rateio/internal/common"
	"github.com/noah-isme/backend-rateio/internal/user"
)

const defaultAccessTTL = 15 * time.Minute

// ErrInvalidCredentials is returned when the username or password does not match.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// roleClaim is the private claim carrying the user's role.
const roleClaim = "role"

// Service issues and validates access tokens for registered users.
type Service struct {
	users     user.Store
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
	signer    jwa.SignatureAlgorithm
	validator TokenValidator
	issuer    string
	audience  string
}

// Config configures the auth service.
type Config struct {
	Users          user.Store
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
	Audience       string
	ClockSkew      time.Duration
}

// LoginResult bundles token material returned after a successful login.
type LoginResult struct {
	User         user.User `json:"user"`
	AccessToken  string    `json:"access_token"`
	AccessExpiry time.Time `json:"access_expires_at"`
}

// NewService constructs a Service instance with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Users == nil {
		return nil, errors.New("auth: user store is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "backend-rateio"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "rateio-frontend"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}

	return &Service{
		users:     cfg.Users,
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
		signer:    jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
		},
		issuer:   issuer,
		audience: audience,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Login verifies the credentials and issues an access token.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	match, err := argon2id.ComparePasswordAndHash(password, u.PasswordHash)
	if err != nil {
		return LoginResult{}, err
	}
	if !match {
		return LoginResult{}, ErrInvalidCredentials
	}
	token, expiry, err := s.issueAccessToken(u)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: u, AccessToken: token, AccessExpiry: expiry}, nil
}

// Me resolves the full account behind an authenticated principal.
func (s *Service) Me(ctx context.Context, id string) (user.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}
	return s.users.GetUser(ctx, uid)
}

// ParseAccessToken validates a signed token and returns the principal it carries.
func (s *Service) ParseAccessToken(token string) (common.Principal, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return common.Principal{}, errors.New("auth: empty token")
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return common.Principal{}, err
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return common.Principal{}, fmt.Errorf("auth: unexpected token algorithm %s", algorithm)
	}
	tok, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret), jwt.WithValidate(false))
	if err != nil {
		return common.Principal{}, err
	}
	if err := s.validator.Validate(tok, algorithm, s.now()); err != nil {
		return common.Principal{}, err
	}
	sub := tok.Subject()
	if sub == "" {
		return common.Principal{}, errors.New("auth: token missing subject")
	}
	role := ""
	if v, ok := tok.Get(roleClaim); ok {
		if str, ok := v.(string); ok {
			role = str
		}
	}
	if !user.Role(role).Valid() {
		return common.Principal{}, errors.New("auth: token missing role")
	}
	return common.Principal{ID: sub, Role: role}, nil
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", errors.New("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}

func (s *Service) issueAccessToken(u user.User) (string, time.Time, error) {
	now := s.now()
	expiry := now.Add(s.accessTTL)
	tok, err := jwt.NewBuilder().
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		Subject(u.ID.String()).
		IssuedAt(now).
		Expiration(expiry).
		Claim(roleClaim, string(u.Role)).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiry, nil
}
