// Package requests lets a signed-in applicant submit, list and withdraw recruitment requests.
package requests

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/recruit-portal/internal/account"
	"github.com/hongminglow/recruit-portal/internal/metrics"
	"github.com/hongminglow/recruit-portal/internal/models"
	"github.com/hongminglow/recruit-portal/internal/nationalid"
	"github.com/hongminglow/recruit-portal/internal/sanitize"
	"github.com/hongminglow/recruit-portal/internal/validation"
)

const (
	// DefaultMessage is stored when the applicant leaves the notes empty.
	DefaultMessage = "No additional notes"
	// UnknownUserName is snapshotted when the signed-in user has no name on record.
	UnknownUserName = "Unknown"
)

// Repository is the slice of the record store the request service needs.
type Repository interface {
	FindRequestsByUser(ctx context.Context, userID string) ([]models.Request, error)
	InsertRequest(ctx context.Context, req models.Request) error
	DeleteRequest(ctx context.Context, id string) error
}

// Authorizer resolves a session into its user, or fails with account.ErrUnauthenticated.
type Authorizer interface {
	Authorize(ctx context.Context, sess account.Session) (models.User, error)
}

// SubmitInput carries the raw request form.
type SubmitInput struct {
	Type                 string
	Message              string
	RequestedGovernorate string
	FileName             string
}

// Service implements submission, listing and withdrawal of requests.
type Service struct {
	repo    Repository
	auth    Authorizer
	text    *sanitize.Text
	metrics metrics.Recorder
	log     *slog.Logger
	now     func() time.Time
	newID   func() string
}

// Option customises a Service.
type Option func(*Service)

// WithMetrics sets the recorder for submissions and deletions.
func WithMetrics(m metrics.Recorder) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger. slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock overrides time.Now for CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides how request ids are minted. The first eight
// characters of an id form the reference shown to applicants.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// NewService wires the request service. auth decides which sessions may act.
func NewService(repo Repository, auth Authorizer, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		auth:    auth,
		text:    sanitize.NewText(),
		metrics: metrics.Nop{},
		log:     slog.Default(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates the form and stores a new request in the Under Review state.
func (s *Service) Submit(ctx context.Context, sess account.Session, in SubmitInput) (models.Request, error) {
	user, err := s.auth.Authorize(ctx, sess)
	if err != nil {
		return models.Request{}, err
	}

	var v validation.Errors
	reqType := models.RequestType(strings.TrimSpace(in.Type))
	switch {
	case reqType == "":
		v.Add("type", "Please select a request type")
	case !reqType.Valid():
		v.Add("type", "Unknown request type")
	}

	var requested nationalid.Governorate
	if name := strings.TrimSpace(in.RequestedGovernorate); name == "" {
		v.Add("requestedGovernorate", "Please select a governorate")
	} else if gov, ok := nationalid.LookupGovernorate(name); !ok {
		v.Add("requestedGovernorate", "Unknown governorate")
	} else {
		requested = gov
	}

	fileName := baseName(in.FileName)
	if fileName == "" {
		v.Add("file", "Please attach a supporting document")
	}

	if err := v.Err(); err != nil {
		return models.Request{}, err
	}

	message := s.text.Clean(in.Message)
	if message == "" {
		message = DefaultMessage
	}
	userName := user.FullName
	if userName == "" {
		userName = UnknownUserName
	}

	req := models.Request{
		ID:                   s.newID(),
		UserID:               user.ID,
		UserName:             userName,
		Type:                 reqType,
		Message:              message,
		FileName:             fileName,
		BirthGovernorate:     user.Governorate,
		RequestedGovernorate: requested.Name(),
		Status:               models.StatusUnderReview,
		CreatedAt:            s.now().UTC(),
	}
	if err := s.repo.InsertRequest(ctx, req); err != nil {
		return models.Request{}, fmt.Errorf("insert request: %w", err)
	}

	s.metrics.RecordRequestSubmitted(string(reqType))
	s.log.InfoContext(ctx, "request submitted",
		slog.String("request_id", req.ID),
		slog.String("user_id", user.ID),
		slog.String("type", string(reqType)),
	)
	return req, nil
}

// ListMine returns the session user's requests, newest first. Without a valid
// session the list is empty rather than an error.
func (s *Service) ListMine(ctx context.Context, sess account.Session) ([]models.Request, error) {
	user, err := s.auth.Authorize(ctx, sess)
	if err != nil {
		if errors.Is(err, account.ErrUnauthenticated) {
			return []models.Request{}, nil
		}
		return nil, err
	}

	reqs, err := s.repo.FindRequestsByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	// Stored order is insertion order; stable sort keeps it for equal timestamps.
	sort.SliceStable(reqs, func(i, j int) bool {
		return reqs[i].CreatedAt.After(reqs[j].CreatedAt)
	})
	if reqs == nil {
		reqs = []models.Request{}
	}
	return reqs, nil
}

// Delete withdraws one of the caller's requests. Unknown ids and requests owned
// by someone else are treated as already gone.
func (s *Service) Delete(ctx context.Context, sess account.Session, id string) error {
	user, err := s.auth.Authorize(ctx, sess)
	if err != nil {
		return err
	}

	mine, err := s.repo.FindRequestsByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	for _, r := range mine {
		if r.ID != id {
			continue
		}
		if err := s.repo.DeleteRequest(ctx, id); err != nil {
			return fmt.Errorf("delete request: %w", err)
		}
		s.metrics.RecordRequestDeleted()
		s.log.InfoContext(ctx, "request deleted", slog.String("request_id", id), slog.String("user_id", user.ID))
		return nil
	}
	return nil
}

// baseName drops any client-side directory components from an uploaded file name.
func baseName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return ""
	}
	base := path.Base(name)
	if base == "." || base == "/" {
		return ""
	}
	return base
}
