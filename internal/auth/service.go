package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/tabungan/internal/user"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=auth
type Users interface {
	Register(ctx context.Context, email, password string) (*user.User, error)
	Authenticate(ctx context.Context, email, password string) (*user.User, error)
}

// Revocations remembers signed-out token IDs until their tokens expire.
type Revocations interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type Options struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

type Service struct {
	users       Users
	revocations Revocations
	secret      []byte
	issuer      string
	ttl         time.Duration
	now         func() time.Time

	mu        sync.Mutex
	listeners map[uint64]func(SessionEvent)
	nextID    uint64
}

func NewService(users Users, revocations Revocations, opts Options) *Service {
	return &Service{
		users:       users,
		revocations: revocations,
		secret:      []byte(opts.Secret),
		issuer:      opts.Issuer,
		ttl:         opts.TTL,
		now:         time.Now,
		listeners:   make(map[uint64]func(SessionEvent)),
	}
}

type claims struct {
	Email string    `json:"email"`
	Role  user.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s *Service) Register(ctx context.Context, email, password string) (*user.User, error) {
	return s.users.Register(ctx, email, password)
}

// SignIn checks the credentials and issues a signed token.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	id := Identity{
		UserID:    u.ID,
		Email:     u.Email,
		Role:      u.Role,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(s.ttl).Truncate(time.Second),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: id.Email,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID.String(),
			Issuer:    s.issuer,
			ID:        id.TokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(id.ExpiresAt),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	s.emit(SessionEvent{Identity: &id})

	return &Session{Token: signed, Identity: id}, nil
}

// SignOut revokes the token until it would have expired anyway. Signing out
// an already expired token is a no-op.
func (s *Service) SignOut(ctx context.Context, token string) error {
	id, err := s.parse(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil
		}

		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if err := s.revocations.Revoke(ctx, id.TokenID, id.ExpiresAt); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}

	s.emit(SessionEvent{})

	return nil
}

// Verify checks signature, expiry and revocation of a token.
func (s *Service) Verify(ctx context.Context, token string) (*Identity, error) {
	id, err := s.parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	revoked, err := s.revocations.IsRevoked(ctx, id.TokenID)
	if err != nil {
		return nil, fmt.Errorf("checking revocation: %w", err)
	}

	if revoked {
		return nil, ErrRevoked
	}

	return id, nil
}

// OnSessionChange calls fn after every sign-in and sign-out made through this
// service until the returned function is called.
func (s *Service) OnSessionChange(fn func(SessionEvent)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Service) emit(ev SessionEvent) {
	s.mu.Lock()
	fns := make([]func(SessionEvent), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (s *Service) parse(token string) (*Identity, error) {
	var c claims

	_, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, fmt.Errorf("parsing subject: %w", err)
	}

	if c.ID == "" {
		return nil, errors.New("missing token id")
	}

	return &Identity{
		UserID:    userID,
		Email:     c.Email,
		Role:      c.Role,
		TokenID:   c.ID,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
