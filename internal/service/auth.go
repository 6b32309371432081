package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/numberdesk/numberdesk/internal/config"
	"github.com/numberdesk/numberdesk/internal/model"
	"github.com/numberdesk/numberdesk/internal/session"
	"github.com/numberdesk/numberdesk/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
)

// SaltBytes is the length of the random salt generated per credential.
const SaltBytes = 16

// Principal kinds.
const (
	PrincipalSession = "session"
	PrincipalLegacy  = "legacy"
)

// Principal is the identity behind a verified bearer credential.
type Principal struct {
	Kind      string
	Username  string
	ExpiresAt time.Time
}

// Token is an issued session token.
type Token struct {
	Value     string
	ExpiresAt time.Time
	TTL       time.Duration
}

// AdminStore is the subset of the store the credential checker needs.
type AdminStore interface {
	GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error)
	CreateAdmin(ctx context.Context, admin *model.Admin) error
	EnsureDefaultAdmin(ctx context.Context, admin *model.Admin) (bool, error)
}

// AuthService verifies admin credentials, issues and checks session tokens,
// and handles the legacy identity-match bearer credential.
type AuthService struct {
	admins     AdminStore
	sessions   session.Store
	jwtSecret  []byte
	sessionTTL time.Duration
	legacyTTL  time.Duration
	legacy     config.LegacyIdentity
	now        func() time.Time
}

// NewAuthService builds an AuthService. When cfg.JWTSecret is empty a
// random signing key is generated.
func NewAuthService(admins AdminStore, sessions session.Store, cfg config.AuthConfig) (*AuthService, error) {
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
	}
	return &AuthService{
		admins:     admins,
		sessions:   sessions,
		jwtSecret:  secret,
		sessionTTL: cfg.SessionTTL,
		legacyTTL:  cfg.LegacyTTL,
		legacy:     cfg.Legacy,
		now:        time.Now,
	}, nil
}

// ---------------------------------------------------------------------------
// Password hashing
// ---------------------------------------------------------------------------

// HashPassword returns the hex SHA-256 of password followed by salt.
func HashPassword(password, salt string) string {
	h := sha256.Sum256([]byte(password + salt))
	return hex.EncodeToString(h[:])
}

// NewSalt returns SaltBytes of random data, hex encoded.
func NewSalt() (string, error) {
	return randomHex(SaltBytes)
}

// NewCredential builds an Admin with a fresh salt and the matching hash.
func NewCredential(username, password string) (*model.Admin, error) {
	salt, err := NewSalt()
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return &model.Admin{
		Username:     username,
		PasswordHash: HashPassword(password, salt),
		Salt:         salt,
	}, nil
}

// VerifyPassword reports whether password matches the stored credential.
// The comparison takes the same time wherever the hashes differ.
func VerifyPassword(admin *model.Admin, password string) bool {
	candidate := HashPassword(password, admin.Salt)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(admin.PasswordHash)) == 1
}

// ---------------------------------------------------------------------------
// Admin credentials
// ---------------------------------------------------------------------------

// SeedDefaultAdmin stores username/password if no admin exists yet. When
// password is empty a random one is generated. The returned password is
// non-empty only when it was generated and actually stored, so the caller can
// show it once.
func (s *AuthService) SeedDefaultAdmin(ctx context.Context, username, password string) (generated string, seeded bool, err error) {
	if password == "" {
		if password, err = randomPassword(); err != nil {
			return "", false, fmt.Errorf("generate admin password: %w", err)
		}
		generated = password
	}

	admin, err := NewCredential(username, password)
	if err != nil {
		return "", false, err
	}
	seeded, err = s.admins.EnsureDefaultAdmin(ctx, admin)
	if err != nil {
		return "", false, err
	}
	if !seeded {
		return "", false, nil
	}
	return generated, true, nil
}

// CreateAdmin stores an additional admin credential.
func (s *AuthService) CreateAdmin(ctx context.Context, username, password string) (*model.Admin, error) {
	admin, err := NewCredential(username, password)
	if err != nil {
		return nil, err
	}
	if err := s.admins.CreateAdmin(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

// ---------------------------------------------------------------------------
// Session login
// ---------------------------------------------------------------------------

// Login checks username/password and, on success, issues a fresh opaque
// token recorded in the session store. Missing fields, unknown usernames and
// wrong passwords all yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Token, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	admin, err := s.admins.GetAdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Spend one hash so unknown usernames cost the same as known ones.
			HashPassword(password, strings.Repeat("0", SaltBytes*2))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up admin: %w", err)
	}
	if !VerifyPassword(admin, password) {
		return nil, ErrInvalidCredentials
	}

	value, err := randomHex(32)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	now := s.now()
	tok := &Token{Value: value, ExpiresAt: now.Add(s.sessionTTL), TTL: s.sessionTTL}

	err = s.sessions.Save(ctx, value, session.Session{
		Username:  admin.Username,
		IssuedAt:  now,
		ExpiresAt: tok.ExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return tok, nil
}

// Logout forgets a session token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// Authenticate resolves a bearer credential: signed legacy tokens are
// checked by signature and expiry, anything else must be a live session.
func (s *AuthService) Authenticate(ctx context.Context, bearer string) (*Principal, error) {
	if bearer == "" {
		return nil, ErrInvalidCredentials
	}
	if strings.Count(bearer, ".") == 2 {
		return s.ValidateJWT(bearer)
	}

	sess, err := s.sessions.Lookup(ctx, bearer)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up session: %w", err)
	}
	return &Principal{Kind: PrincipalSession, Username: sess.Username, ExpiresAt: sess.ExpiresAt}, nil
}

// ---------------------------------------------------------------------------
// Legacy identity-match login
// ---------------------------------------------------------------------------

// LegacyEnabled reports whether a legacy identity is configured.
func (s *AuthService) LegacyEnabled() bool {
	return s.legacy.Enabled()
}

// LegacyLogin matches name/email/phone exactly against the configured legacy
// identity and returns a signed bearer credential.
func (s *AuthService) LegacyLogin(name, email, phone string) (string, error) {
	if !s.legacy.Enabled() {
		return "", ErrInvalidCredentials
	}
	match := subtle.ConstantTimeCompare([]byte(name), []byte(s.legacy.Name)) &
		subtle.ConstantTimeCompare([]byte(email), []byte(s.legacy.Email)) &
		subtle.ConstantTimeCompare([]byte(phone), []byte(s.legacy.Phone))
	if match != 1 {
		return "", ErrInvalidCredentials
	}
	return s.IssueJWT(name, s.legacyTTL)
}

// IssueJWT creates a signed HS256 token for subject.
func (s *AuthService) IssueJWT(subject string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Issuer:    "numberdesk",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateJWT verifies a legacy bearer credential by signature and expiry.
func (s *AuthService) ValidateJWT(tokenStr string) (*Principal, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidCredentials
	}
	if !token.Valid {
		return nil, ErrInvalidCredentials
	}

	p := &Principal{Kind: PrincipalLegacy, Username: claims.Subject}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func randomPassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
