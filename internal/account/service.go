// Package account registers applicants and manages one sign-in session per client.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hongminglow/recruit-portal/internal/auth"
	"github.com/hongminglow/recruit-portal/internal/eligibility"
	"github.com/hongminglow/recruit-portal/internal/metrics"
	"github.com/hongminglow/recruit-portal/internal/models"
	"github.com/hongminglow/recruit-portal/internal/nationalid"
	"github.com/hongminglow/recruit-portal/internal/records"
	"github.com/hongminglow/recruit-portal/internal/sanitize"
	"github.com/hongminglow/recruit-portal/internal/validation"
)

var (
	// ErrInvalidCredentials is returned for every failed login, whether the ID is unknown or the password is wrong.
	ErrInvalidCredentials = errors.New("invalid national id or password")
	// ErrUnauthenticated is returned when a session-scoped operation has no valid session.
	ErrUnauthenticated = errors.New("you must be logged in")
)

var (
	phonePattern = regexp.MustCompile(`^01[0125][0-9]{8}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

const (
	minAddressLength  = 10
	minPasswordLength = 8
)

// Repository is the slice of the record store the account service needs.
type Repository interface {
	FindUserByID(ctx context.Context, id string) (models.User, error)
	FindUserByNationalID(ctx context.Context, nationalID string) (models.User, error)
	InsertUser(ctx context.Context, user models.User) error
	Session(ctx context.Context, clientID string) (string, error)
	SetSession(ctx context.Context, clientID, userID string) error
}

// Session is the explicit sign-in handle returned by Login and passed back by
// callers. ClientID identifies the browser or API client that signed in; each
// client holds at most one active session.
type Session struct {
	ClientID  string
	UserID    string
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RegisterInput carries the raw registration form fields.
type RegisterInput struct {
	FullName        string
	NationalID      string
	Address         string
	Phone           string
	Email           string
	Password        string
	ConfirmPassword string
}

// Service implements registration, login, logout and session lookup.
type Service struct {
	repo    Repository
	tokens  *auth.TokenManager
	hasher  auth.PasswordHasher
	policy  eligibility.Policy
	text    *sanitize.Text
	metrics metrics.Recorder
	log     *slog.Logger
	now     func() time.Time
	newID   func() string

	newClientID func() string

	dummyOnce sync.Once
	dummyHash string
}

// Option customises a Service.
type Option func(*Service)

// WithPolicy sets the eligibility rules applied at registration.
func WithPolicy(p eligibility.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithMetrics sets the recorder for registration and login outcomes.
func WithMetrics(m metrics.Recorder) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger. slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock overrides time.Now for age checks, timestamps and tokens' issue time.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides how user ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithClientIDGenerator overrides how ids for newly signed-in clients are minted.
func WithClientIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newClientID = fn }
}

// NewService wires the account service.
func NewService(repo Repository, tokens *auth.TokenManager, hasher auth.PasswordHasher, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		tokens:  tokens,
		hasher:  hasher,
		policy:  eligibility.DefaultPolicy(),
		text:    sanitize.NewText(),
		metrics: metrics.Nop{},
		log:     slog.Default(),
		now:     time.Now,
		newID:   uuid.NewString,

		newClientID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates the form, derives identity attributes from the national ID
// and stores a new user. Every failing field is reported together; nothing is
// persisted unless all checks pass.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	fullName := strings.Join(strings.Fields(in.FullName), " ")
	nid := strings.TrimSpace(in.NationalID)
	address := s.text.Clean(in.Address)
	phone := strings.TrimSpace(in.Phone)
	email := strings.TrimSpace(in.Email)

	var v validation.Errors
	if len(strings.Fields(fullName)) < 2 {
		v.Add("fullName", "Please enter your full name (at least first and last name)")
	}

	decoded, err := nationalid.Decode(nid)
	if err != nil {
		v.Add("nationalId", decodeMessage(err))
	} else {
		for _, reason := range s.policy.Check(decoded, s.now()).Reasons {
			v.Add("nationalId", s.policy.Message(reason))
		}
	}

	if utf8.RuneCountInString(address) < minAddressLength {
		v.Add("address", fmt.Sprintf("Address must be at least %d characters", minAddressLength))
	}
	if !phonePattern.MatchString(phone) {
		v.Add("phone", "Please enter a valid Egyptian mobile number (e.g. 01012345678)")
	}
	if !emailPattern.MatchString(email) {
		v.Add("email", "Please enter a valid email address")
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		v.Add("password", fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	if in.Password != in.ConfirmPassword {
		v.Add("confirmPassword", "Passwords do not match")
	}

	if err := v.Err(); err != nil {
		s.metrics.RecordRegistration(metrics.OutcomeInvalid)
		return models.User{}, err
	}

	stored, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.metrics.RecordRegistration(metrics.OutcomeError)
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:          s.newID(),
		FullName:    fullName,
		NationalID:  nid,
		Gender:      string(decoded.Gender),
		Governorate: decoded.Governorate.Name(),
		DateOfBirth: decoded.BirthDate.String(),
		Address:     address,
		Phone:       phone,
		Email:       email,
		Password:    stored,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.InsertUser(ctx, user); err != nil {
		if errors.Is(err, records.ErrDuplicateNationalID) {
			s.metrics.RecordRegistration(metrics.OutcomeDuplicate)
			return models.User{}, err
		}
		s.metrics.RecordRegistration(metrics.OutcomeError)
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}

	s.metrics.RecordRegistration(metrics.OutcomeSuccess)
	s.log.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("national_id", nationalid.Mask(nid)),
	)
	return user, nil
}

// Login checks the identifier's format and gender, then the credentials. Unknown
// identifiers and wrong passwords produce the same ErrInvalidCredentials.
//
// clientID names the caller's client; an empty clientID starts a new one. A
// successful login replaces whatever session that client held and leaves
// other clients signed in.
func (s *Service) Login(ctx context.Context, clientID, nationalID, password string) (Session, error) {
	nid := strings.TrimSpace(nationalID)

	var v validation.Errors
	reasons, err := eligibility.CheckLogin(nid)
	if err != nil {
		v.Add("nationalId", decodeMessage(err))
	}
	for _, reason := range reasons {
		v.Add("nationalId", s.policy.Message(reason))
	}
	if password == "" {
		v.Add("password", "Password is required")
	}
	if err := v.Err(); err != nil {
		s.metrics.RecordLogin(metrics.OutcomeInvalid)
		return Session{}, err
	}

	user, err := s.repo.FindUserByNationalID(ctx, nid)
	found := err == nil
	if err != nil && !errors.Is(err, records.ErrNotFound) {
		s.metrics.RecordLogin(metrics.OutcomeError)
		return Session{}, fmt.Errorf("find user: %w", err)
	}

	stored := user.Password
	if !found {
		stored = s.dummy()
	}
	if !s.hasher.Matches(stored, password) || !found {
		s.metrics.RecordLogin(metrics.OutcomeRejected)
		s.log.WarnContext(ctx, "login rejected", slog.String("national_id", nationalid.Mask(nid)))
		return Session{}, ErrInvalidCredentials
	}

	if clientID == "" {
		clientID = s.newClientID()
	}
	token, claims, err := s.tokens.Generate(user, clientID)
	if err != nil {
		s.metrics.RecordLogin(metrics.OutcomeError)
		return Session{}, err
	}
	if err := s.repo.SetSession(ctx, clientID, user.ID); err != nil {
		s.metrics.RecordLogin(metrics.OutcomeError)
		return Session{}, err
	}

	s.metrics.RecordLogin(metrics.OutcomeSuccess)
	s.log.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))
	return Session{
		ClientID:  clientID,
		UserID:    user.ID,
		Token:     token,
		IssuedAt:  claims.IssuedAt,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// Logout clears the pointer of the client that owns sess. Sessions of other
// clients are untouched. A session without a client has nothing to clear.
func (s *Service) Logout(ctx context.Context, sess Session) error {
	if sess.ClientID == "" {
		return nil
	}
	if err := s.repo.SetSession(ctx, sess.ClientID, ""); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "user logged out", slog.String("user_id", sess.UserID))
	return nil
}

// CurrentUser resolves clientID's session pointer. It reports false when the
// pointer is empty or names a user that no longer exists.
func (s *Service) CurrentUser(ctx context.Context, clientID string) (models.User, bool, error) {
	if clientID == "" {
		return models.User{}, false, nil
	}
	userID, err := s.repo.Session(ctx, clientID)
	if err != nil {
		return models.User{}, false, err
	}
	if userID == "" {
		return models.User{}, false, nil
	}
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return models.User{}, false, nil
		}
		return models.User{}, false, err
	}
	return user, true, nil
}

// Resume rebuilds a Session from a token presented by a returning caller.
func (s *Service) Resume(ctx context.Context, token string) (Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	sess := Session{
		ClientID:  claims.ClientID,
		UserID:    claims.UserID,
		Token:     token,
		IssuedAt:  claims.IssuedAt,
		ExpiresAt: claims.ExpiresAt,
	}
	if _, err := s.Authorize(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Authorize returns the session's user if the session is still the active one
// for its client. Logging out or signing in as someone else on the same client
// revokes it, as does the user disappearing.
func (s *Service) Authorize(ctx context.Context, sess Session) (models.User, error) {
	if sess.UserID == "" || sess.ClientID == "" {
		return models.User{}, ErrUnauthenticated
	}
	user, ok, err := s.CurrentUser(ctx, sess.ClientID)
	if err != nil {
		return models.User{}, err
	}
	if !ok || user.ID != sess.UserID {
		return models.User{}, ErrUnauthenticated
	}
	return user, nil
}

// dummy is compared against when the identifier is unknown so both failure
// paths do the same hashing work.
func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(uuid.NewString())
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}

func decodeMessage(err error) string {
	switch {
	case errors.Is(err, nationalid.ErrInvalidFormat):
		return "National ID must be exactly 14 digits"
	case errors.Is(err, nationalid.ErrUnknownCentury):
		return "National ID has an unknown century digit"
	case errors.Is(err, nationalid.ErrInvalidDate):
		return "National ID contains an invalid birth date"
	case errors.Is(err, nationalid.ErrUnknownGovernorate):
		return "National ID governorate code is not recognised"
	default:
		return "National ID is invalid"
	}
}
