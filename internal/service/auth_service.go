package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/config"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenIssuer   = "inkwell-api"
	TokenAudience = "inkwell-client"

	defaultSessionTTL = 7 * 24 * time.Hour
)

// Messages returned to the sign-in and sign-up forms.
const (
	MsgInvalidCredentials = "Invalid login credentials"
	MsgEmailTaken         = "User already registered"
	MsgUsernameTaken      = "Username is already taken"
)

type sessionClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AuthService issues and checks session tokens.
type AuthService struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	cache    *cache.Cache
	secret   []byte
	ttl      time.Duration
	hashCost int
	now      func() time.Time
}

// NewAuthService wires the service. c may wrap a nil client, in which case
// sign-out cannot revoke tokens and only the client forgets them.
func NewAuthService(
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	c *cache.Cache,
	cfg *config.Config,
) *AuthService {
	ttl := defaultSessionTTL
	if cfg.SessionTTLHours > 0 {
		ttl = time.Duration(cfg.SessionTTLHours) * time.Hour
	}
	return &AuthService{
		users:    users,
		profiles: profiles,
		cache:    c,
		secret:   []byte(cfg.JWTSecret),
		ttl:      ttl,
		hashCost: bcrypt.DefaultCost,
		now:      time.Now,
	}
}

// SignUp creates the credential row and the profile in one transaction.
func (s *AuthService) SignUp(ctx context.Context, email, password, username string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, models.NewConflictError(MsgEmailTaken, nil)
	} else if !models.IsCode(err, models.CodeNotFound) {
		return nil, err
	}
	if _, err := s.profiles.GetByUsername(ctx, username); err == nil {
		return nil, models.NewConflictError(MsgUsernameTaken, nil)
	} else if !models.IsCode(err, models.CodeNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{ID: uuid.NewString(), Email: email, Password: string(hashed)}
	profile := &models.Profile{Username: username}
	if err := s.users.CreateWithProfile(ctx, user, profile); err != nil {
		if models.IsCode(err, models.CodeConflict) {
			// lost a race with a concurrent sign-up
			return nil, models.NewConflictError(MsgEmailTaken, err)
		}
		return nil, err
	}
	return user, nil
}

// SignIn checks the password and issues a session token.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError(MsgInvalidCredentials)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError(MsgInvalidCredentials)
	}

	username := ""
	if profile, err := s.profiles.GetByID(ctx, user.ID); err == nil {
		username = profile.Username
	}

	sessionUser := &models.SessionUser{ID: user.ID, Email: user.Email, Username: username}
	token, expiresAt, err := s.issue(sessionUser)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &models.Session{Token: token, ExpiresAt: expiresAt, User: sessionUser}, nil
}

func (s *AuthService) issue(user *models.SessionUser) (string, time.Time, error) {
	if len(s.secret) == 0 {
		return "", time.Time{}, errors.New("JWT secret not configured")
	}
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := sessionClaims{
		Email:    user.Email,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	return signed, expiresAt, err
}

func (s *AuthService) parse(token string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	return claims, nil
}

// SignOut revokes the token until it would have expired anyway.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	if !s.cache.Enabled() {
		observability.Ctx(ctx).Warn().Msg("redis unavailable, session token not revoked")
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.Mark(ctx, cache.BlacklistKey(claims.ID), ttl); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ResolveSession returns the user behind a live token. The username is read
// from the profile so renames show up without a new token.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*models.SessionUser, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	if claims.ID != "" {
		revoked, err := s.cache.Exists(ctx, cache.BlacklistKey(claims.ID))
		if err != nil {
			observability.Ctx(ctx).Warn().Err(err).Msg("revocation check failed")
		}
		if revoked {
			return nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}

	user := &models.SessionUser{ID: claims.Subject, Email: claims.Email, Username: claims.Username}
	profile, err := s.profiles.GetByID(ctx, claims.Subject)
	switch {
	case err == nil:
		user.Username = profile.Username
	case models.IsCode(err, models.CodeNotFound):
		return nil, models.NewUnauthorizedError("Account no longer exists")
	default:
		return nil, err
	}
	return user, nil
}
