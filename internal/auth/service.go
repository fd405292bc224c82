// Package auth implements account sign-up, email verification, sign-in,
// password reset and bearer-token sessions over a local JSON store.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

var _ types.AuthProvider = (*Service)(nil)

// Service implements types.AuthProvider.
type Service struct {
	repo     *FileRepo
	tokens   TokenStore
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time

	codeTTL     time.Duration
	sessionTTL  time.Duration
	maxAttempts int
	bcryptCost  int
}

// Option configures a Service.
type Option func(*Service)

// WithTokenStore persists the signed-in client's token between runs.
// Without one, callers pass tokens through WithToken.
func WithTokenStore(ts TokenStore) Option {
	return func(s *Service) { s.tokens = ts }
}

// WithNotifier sets how one-time codes are delivered.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// NewService returns a Service over repo. Codes go to the log unless a
// Notifier is given.
func NewService(repo *FileRepo, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		log:         slog.New(slog.DiscardHandler),
		now:         time.Now,
		codeTTL:     15 * time.Minute,
		sessionTTL:  7 * 24 * time.Hour,
		maxAttempts: 5,
		bcryptCost:  bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = LogNotifier{Log: s.log}
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return types.ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || strings.ToLower(addr.Address) != email {
		return types.ErrInvalidEmail
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return types.ErrWeakPassword
	}
	return nil
}

func hashCode(p Purpose, email, code string) string {
	sum := sha256.Sum256([]byte(string(p) + ":" + email + ":" + code))
	return hex.EncodeToString(sum[:])
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func generateToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}

func backendErr(op string, err error) error {
	return &types.BackendError{Op: op, Err: err}
}

// SignUp registers an unverified account and sends a verification code.
// Signing up again with an unverified email replaces the password and
// resends the code.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (types.SignUpResult, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return types.SignUpResult{}, err
	}
	if err := validatePassword(password); err != nil {
		return types.SignUpResult{}, err
	}

	u, exists := s.repo.GetUserByEmail(email)
	if exists && u.Verified {
		return types.SignUpResult{}, types.ErrEmailTaken
	}
	if !exists {
		u = User{ID: uuid.NewString(), Email: email, CreatedAt: s.now().UTC()}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return types.SignUpResult{}, fmt.Errorf("hashing password: %w", err)
	}
	u.PasswordHash = string(hash)
	u.DisplayName = strings.TrimSpace(displayName)
	if err := s.repo.PutUser(u); err != nil {
		return types.SignUpResult{}, backendErr("sign-up", err)
	}

	if err := s.issueCode(ctx, PurposeVerify, email); err != nil {
		return types.SignUpResult{}, backendErr("sign-up", err)
	}
	s.log.Info("account created", "email", email)
	return types.SignUpResult{Email: email, PendingVerification: true}, nil
}

// Verify confirms the email with the code sent at sign-up and signs in.
func (s *Service) Verify(ctx context.Context, email, code string) (types.Session, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return types.Session{}, err
	}
	if err := s.consumeCode(PurposeVerify, email, code); err != nil {
		return types.Session{}, err
	}

	u, ok := s.repo.GetUserByEmail(email)
	if !ok {
		return types.Session{}, types.ErrInvalidCode
	}
	u.Verified = true
	if err := s.repo.PutUser(u); err != nil {
		return types.Session{}, backendErr("verify", err)
	}
	return s.startSession(u, "verify")
}

// SignIn checks the password of a verified account and starts a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (types.Session, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return types.Session{}, err
	}
	u, ok := s.repo.GetUserByEmail(email)
	if !ok {
		return types.Session{}, types.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return types.Session{}, types.ErrInvalidCredentials
	}
	if !u.Verified {
		return types.Session{}, types.ErrEmailNotConfirmed
	}
	return s.startSession(u, "sign-in")
}

// RequestPasswordReset sends a reset code. Unknown emails succeed without
// sending anything.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	if _, ok := s.repo.GetUserByEmail(email); !ok {
		s.log.Debug("password reset for unknown email", "email", email)
		return nil
	}
	if err := s.issueCode(ctx, PurposeReset, email); err != nil {
		return backendErr("reset", err)
	}
	return nil
}

// ResetPassword sets a new password using a reset code. Existing sessions of
// the account are revoked.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if err := s.consumeCode(PurposeReset, email, code); err != nil {
		return err
	}

	u, ok := s.repo.GetUserByEmail(email)
	if !ok {
		return types.ErrInvalidCode
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	u.PasswordHash = string(hash)
	u.Verified = true
	if err := s.repo.PutUser(u); err != nil {
		return backendErr("reset", err)
	}
	if err := s.repo.DeleteSessionsForUser(u.ID); err != nil {
		return backendErr("reset", err)
	}
	s.log.Info("password reset", "email", email)
	return nil
}

// SignOut revokes the current session. Signing out without a session is not
// an error.
func (s *Service) SignOut(ctx context.Context) error {
	token, fromStore, err := s.currentToken(ctx)
	if err != nil {
		return backendErr("sign-out", err)
	}
	if token == "" {
		return nil
	}
	if err := s.repo.DeleteSessionByTokenHash(hashToken(token)); err != nil {
		return backendErr("sign-out", err)
	}
	if fromStore {
		if err := s.tokens.Clear(); err != nil {
			return backendErr("sign-out", err)
		}
	}
	return nil
}

// CurrentSession resolves the token in ctx, or the saved client token.
func (s *Service) CurrentSession(ctx context.Context) (types.Session, bool) {
	token, _, err := s.currentToken(ctx)
	if err != nil || token == "" {
		return types.Session{}, false
	}
	sess, err := s.Lookup(ctx, token)
	if err != nil {
		return types.Session{}, false
	}
	return sess, true
}

// Lookup resolves a bearer token. Expired sessions are removed.
func (s *Service) Lookup(ctx context.Context, token string) (types.Session, error) {
	if token == "" {
		return types.Session{}, types.ErrNoSession
	}
	th := hashToken(token)
	rec, ok := s.repo.GetSessionByTokenHash(th)
	if !ok {
		return types.Session{}, types.ErrNoSession
	}
	if s.now().After(rec.ExpiresAt) {
		_ = s.repo.DeleteSessionByTokenHash(th)
		return types.Session{}, types.ErrNoSession
	}
	u, ok := s.repo.GetUserByID(rec.UserID)
	if !ok {
		_ = s.repo.DeleteSessionByTokenHash(th)
		return types.Session{}, types.ErrNoSession
	}
	return types.Session{
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Token:       token,
		ExpiresAt:   rec.ExpiresAt,
	}, nil
}

// currentToken prefers a token in ctx over the saved one. fromStore reports
// which source was used.
func (s *Service) currentToken(ctx context.Context) (token string, fromStore bool, err error) {
	if t, ok := TokenFromContext(ctx); ok {
		return t, false, nil
	}
	if s.tokens == nil {
		return "", false, nil
	}
	t, err := s.tokens.Load()
	return t, true, err
}

func (s *Service) startSession(u User, op string) (types.Session, error) {
	token, err := generateToken()
	if err != nil {
		return types.Session{}, backendErr(op, err)
	}
	now := s.now().UTC()
	rec := SessionRecord{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		TokenHash: hashToken(token),
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.repo.CreateSession(rec); err != nil {
		return types.Session{}, backendErr(op, err)
	}
	if s.tokens != nil {
		if err := s.tokens.Save(token); err != nil {
			return types.Session{}, backendErr(op, err)
		}
	}
	s.log.Debug("session started", "user_id", u.ID)
	return types.Session{
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Token:       token,
		ExpiresAt:   rec.ExpiresAt,
	}, nil
}

func (s *Service) issueCode(ctx context.Context, p Purpose, email string) error {
	code, err := generateCode()
	if err != nil {
		return err
	}
	now := s.now().UTC()
	ch := Challenge{
		Email:       email,
		Purpose:     p,
		CodeHash:    hashCode(p, email, code),
		ExpiresAt:   now.Add(s.codeTTL),
		RequestedAt: now,
	}
	if err := s.repo.PutChallenge(ch); err != nil {
		return err
	}
	return s.notifier.Notify(ctx, email, p, code)
}

// consumeCode checks code against the outstanding challenge and deletes the
// challenge on success, on expiry, and after too many wrong attempts.
func (s *Service) consumeCode(p Purpose, email, code string) error {
	code = strings.TrimSpace(code)
	ch, ok := s.repo.GetChallenge(p, email)
	if !ok {
		return types.ErrInvalidCode
	}
	if s.now().After(ch.ExpiresAt) {
		_ = s.repo.DeleteChallenge(p, email)
		return types.ErrInvalidCode
	}
	if hashCode(p, email, code) != ch.CodeHash {
		ch.Attempts++
		if ch.Attempts >= s.maxAttempts {
			_ = s.repo.DeleteChallenge(p, email)
		} else {
			_ = s.repo.PutChallenge(ch)
		}
		return types.ErrInvalidCode
	}
	if err := s.repo.DeleteChallenge(p, email); err != nil {
		return backendErr(string(p), err)
	}
	return nil
}
