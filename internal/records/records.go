// Package records maps the Users and Requests collections and the per-client
// session pointers onto a key-value store. Every mutation reads the whole collection,
// modifies it and writes it back with compare-and-swap.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hongminglow/recruit-portal/internal/models"
	"github.com/hongminglow/recruit-portal/internal/storage"
)

// Keys of the persisted layout. Session pointers live under KeySession
// suffixed with the client id, see SessionKey.
const (
	KeyUsers    = "users"
	KeyRequests = "requests"
	KeySession  = "currentUserId"
)

// SessionKey is the key holding clientID's current user id.
func SessionKey(clientID string) string {
	if clientID == "" {
		return KeySession
	}
	return KeySession + ":" + clientID
}

// DefaultMaxAttempts bounds the compare-and-swap retry loop.
const DefaultMaxAttempts = 5

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = storage.ErrNotFound
	// ErrDuplicateNationalID indicates a user with the same national ID is already registered.
	ErrDuplicateNationalID = errors.New("a user with this national id already exists")
	// ErrConflict indicates concurrent writers kept winning the compare-and-swap race.
	ErrConflict = errors.New("collection changed concurrently; retry")
)

// Store is the typed adapter over a storage.Store.
type Store struct {
	kv          storage.Store
	maxAttempts int
	onConflict  func(key string)
}

// Option customises a Store.
type Option func(*Store)

// WithMaxAttempts overrides DefaultMaxAttempts. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithConflictHook registers a callback invoked on every lost compare-and-swap.
func WithConflictHook(fn func(key string)) Option {
	return func(s *Store) {
		if fn != nil {
			s.onConflict = fn
		}
	}
}

// New builds an adapter over kv.
func New(kv storage.Store, opts ...Option) *Store {
	s := &Store{kv: kv, maxAttempts: DefaultMaxAttempts, onConflict: func(string) {}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type userRecord struct {
	ID          string    `json:"id"`
	FullName    string    `json:"fullName"`
	NationalID  string    `json:"nationalId"`
	Gender      string    `json:"gender"`
	Governorate string    `json:"governorate"`
	DateOfBirth string    `json:"dob"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Password    string    `json:"password"`
	CreatedAt   time.Time `json:"createdAt"`
}

func fromUser(u models.User) userRecord {
	return userRecord{
		ID:          u.ID,
		FullName:    u.FullName,
		NationalID:  u.NationalID,
		Gender:      u.Gender,
		Governorate: u.Governorate,
		DateOfBirth: u.DateOfBirth,
		Address:     u.Address,
		Phone:       u.Phone,
		Email:       u.Email,
		Password:    u.Password,
		CreatedAt:   u.CreatedAt,
	}
}

func (r userRecord) toUser() models.User {
	return models.User{
		ID:          r.ID,
		FullName:    r.FullName,
		NationalID:  r.NationalID,
		Gender:      r.Gender,
		Governorate: r.Governorate,
		DateOfBirth: r.DateOfBirth,
		Address:     r.Address,
		Phone:       r.Phone,
		Email:       r.Email,
		Password:    r.Password,
		CreatedAt:   r.CreatedAt,
	}
}

// ListUsers returns every user in insertion order.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	recs, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(recs))
	for _, r := range recs {
		users = append(users, r.toUser())
	}
	return users, nil
}

// FindUserByID returns ErrNotFound when no user has id.
func (s *Store) FindUserByID(ctx context.Context, id string) (models.User, error) {
	return s.findUser(ctx, func(r userRecord) bool { return r.ID == id })
}

// FindUserByNationalID matches the identifier by exact string equality.
func (s *Store) FindUserByNationalID(ctx context.Context, nationalID string) (models.User, error) {
	return s.findUser(ctx, func(r userRecord) bool { return r.NationalID == nationalID })
}

// InsertUser appends user unless its national ID is already registered.
func (s *Store) InsertUser(ctx context.Context, user models.User) error {
	return s.mutate(ctx, KeyUsers, func(raw string) (string, bool, error) {
		recs, err := decodeUsers(raw)
		if err != nil {
			return "", false, err
		}
		for _, r := range recs {
			if r.NationalID == user.NationalID {
				return "", false, ErrDuplicateNationalID
			}
		}
		next, err := encode(append(recs, fromUser(user)))
		return next, true, err
	})
}

// ListRequests returns every request in insertion order.
func (s *Store) ListRequests(ctx context.Context) ([]models.Request, error) {
	raw, err := s.load(ctx, KeyRequests)
	if err != nil {
		return nil, err
	}
	return decodeRequests(raw)
}

// FindRequestsByUser returns the requests owned by userID in insertion order.
func (s *Store) FindRequestsByUser(ctx context.Context, userID string) ([]models.Request, error) {
	all, err := s.ListRequests(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Request, 0, len(all))
	for _, r := range all {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

// InsertRequest appends req.
func (s *Store) InsertRequest(ctx context.Context, req models.Request) error {
	return s.mutate(ctx, KeyRequests, func(raw string) (string, bool, error) {
		reqs, err := decodeRequests(raw)
		if err != nil {
			return "", false, err
		}
		next, err := encode(append(reqs, req))
		return next, true, err
	})
}

// DeleteRequest removes the request with id. Missing ids are a no-op.
func (s *Store) DeleteRequest(ctx context.Context, id string) error {
	return s.mutate(ctx, KeyRequests, func(raw string) (string, bool, error) {
		reqs, err := decodeRequests(raw)
		if err != nil {
			return "", false, err
		}
		kept := make([]models.Request, 0, len(reqs))
		for _, r := range reqs {
			if r.ID != id {
				kept = append(kept, r)
			}
		}
		if len(kept) == len(reqs) {
			return "", false, nil
		}
		next, err := encode(kept)
		return next, true, err
	})
}

// Session returns the user id clientID is signed in as, or an empty string
// when that client has nobody signed in.
func (s *Store) Session(ctx context.Context, clientID string) (string, error) {
	return s.load(ctx, SessionKey(clientID))
}

// SetSession points clientID's session at userID. An empty userID removes the
// pointer so signed-out clients leave nothing behind.
func (s *Store) SetSession(ctx context.Context, clientID, userID string) error {
	key := SessionKey(clientID)
	if userID == "" {
		if err := s.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		return nil
	}
	if err := s.kv.Set(ctx, key, userID); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

func (s *Store) findUser(ctx context.Context, match func(userRecord) bool) (models.User, error) {
	recs, err := s.loadUsers(ctx)
	if err != nil {
		return models.User{}, err
	}
	for _, r := range recs {
		if match(r) {
			return r.toUser(), nil
		}
	}
	return models.User{}, ErrNotFound
}

func (s *Store) loadUsers(ctx context.Context) ([]userRecord, error) {
	raw, err := s.load(ctx, KeyUsers)
	if err != nil {
		return nil, err
	}
	return decodeUsers(raw)
}

// load treats a missing key as an empty value, matching a freshly initialised store.
func (s *Store) load(ctx context.Context, key string) (string, error) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	return raw, nil
}

// mutate runs fn against the current value and writes its result with
// compare-and-swap, retrying when another writer changed the key in between.
// fn returns changed=false to skip the write.
func (s *Store) mutate(ctx context.Context, key string, fn func(raw string) (string, bool, error)) error {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		raw, err := s.load(ctx, key)
		if err != nil {
			return err
		}
		next, changed, err := fn(raw)
		if err != nil || !changed {
			return err
		}
		ok, err := s.kv.CompareAndSwap(ctx, key, raw, next)
		if err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
		if ok {
			return nil
		}
		s.onConflict(key)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return ErrConflict
}

func decodeUsers(raw string) ([]userRecord, error) {
	recs := []userRecord{}
	if raw == "" {
		return recs, nil
	}
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyUsers, err)
	}
	return recs, nil
}

func decodeRequests(raw string) ([]models.Request, error) {
	reqs := []models.Request{}
	if raw == "" {
		return reqs, nil
	}
	if err := json.Unmarshal([]byte(raw), &reqs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyRequests, err)
	}
	return reqs, nil
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
