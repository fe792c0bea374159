package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/recruit-portal/internal/models"
	"github.com/hongminglow/recruit-portal/internal/storage"
	"github.com/hongminglow/recruit-portal/internal/storage/memory"
)

// contendedKV loses the first `losses` compare-and-swaps as if another writer raced it.
type contendedKV struct {
	*memory.Store
	mu     sync.Mutex
	losses int
}

func (c *contendedKV) CompareAndSwap(ctx context.Context, key, prev, next string) (bool, error) {
	c.mu.Lock()
	if c.losses > 0 {
		c.losses--
		c.mu.Unlock()
		return false, nil
	}
	c.mu.Unlock()
	return c.Store.CompareAndSwap(ctx, key, prev, next)
}

type brokenKV struct {
	*memory.Store
}

func (brokenKV) Get(context.Context, string) (string, error) {
	return "", errors.New("connection reset")
}

func sampleUser(id, nationalID string) models.User {
	return models.User{
		ID:          id,
		FullName:    "Ahmed Mohamed Ali",
		NationalID:  nationalID,
		Gender:      "male",
		Governorate: "Cairo",
		DateOfBirth: "1999-01-01",
		Address:     "12 Tahrir Street, Cairo",
		Phone:       "01012345678",
		Email:       "ahmed@example.com",
		Password:    "secret-pass",
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestEmptyStoreReadsAsEmpty(t *testing.T) {
	s := New(memory.New())
	ctx := context.Background()

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	reqs, err := s.ListRequests(ctx)
	require.NoError(t, err)
	assert.Empty(t, reqs)

	session, err := s.Session(ctx, "client-a")
	require.NoError(t, err)
	assert.Equal(t, "", session)

	_, err = s.FindUserByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsertUserAndLookups(t *testing.T) {
	kv := memory.New()
	s := New(kv)
	ctx := context.Background()

	u := sampleUser("u1", "29901010100158")
	require.NoError(t, s.InsertUser(ctx, u))

	byID, err := s.FindUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, u, byID)

	byNID, err := s.FindUserByNationalID(ctx, "29901010100158")
	require.NoError(t, err)
	assert.Equal(t, u, byNID)

	raw, err := kv.Get(ctx, KeyUsers)
	require.NoError(t, err)
	var stored []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, "29901010100158", stored[0]["nationalId"])
	assert.Equal(t, "secret-pass", stored[0]["password"])
	assert.Equal(t, "1999-01-01", stored[0]["dob"])
}

func TestInsertUserDuplicateNationalID(t *testing.T) {
	s := New(memory.New())
	ctx := context.Background()

	first := sampleUser("u1", "29901010100158")
	require.NoError(t, s.InsertUser(ctx, first))

	second := sampleUser("u2", "29901010100158")
	second.FullName = "Someone Else"
	err := s.InsertUser(ctx, second)
	assert.ErrorIs(t, err, ErrDuplicateNationalID)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, first, users[0])
}

func TestRequestsLifecycle(t *testing.T) {
	s := New(memory.New())
	ctx := context.Background()

	for i, owner := range []string{"u1", "u2", "u1"} {
		require.NoError(t, s.InsertRequest(ctx, models.Request{
			ID:     fmt.Sprintf("r%d", i+1),
			UserID: owner,
			Type:   models.RequestEnlistment,
			Status: models.StatusUnderReview,
		}))
	}

	mine, err := s.FindRequestsByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "r1", mine[0].ID)
	assert.Equal(t, "r3", mine[1].ID)

	require.NoError(t, s.DeleteRequest(ctx, "r1"))
	all, err := s.ListRequests(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	before, err := s.ListRequests(ctx)
	require.NoError(t, err)
	require.NoError(t, s.DeleteRequest(ctx, "does-not-exist"))
	require.NoError(t, s.DeleteRequest(ctx, "r1"))
	after, err := s.ListRequests(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSessionPointerPerClient(t *testing.T) {
	kv := memory.New()
	s := New(kv)
	ctx := context.Background()

	require.NoError(t, s.SetSession(ctx, "client-a", "u1"))
	require.NoError(t, s.SetSession(ctx, "client-b", "u2"))

	got, err := s.Session(ctx, "client-a")
	require.NoError(t, err)
	assert.Equal(t, "u1", got)
	got, err = s.Session(ctx, "client-b")
	require.NoError(t, err)
	assert.Equal(t, "u2", got)

	raw, err := kv.Get(ctx, "currentUserId:client-a")
	require.NoError(t, err)
	assert.Equal(t, "u1", raw)

	require.NoError(t, s.SetSession(ctx, "client-a", ""))
	got, err = s.Session(ctx, "client-a")
	require.NoError(t, err)
	assert.Equal(t, "", got)
	_, err = kv.Get(ctx, SessionKey("client-a"))
	assert.ErrorIs(t, err, storage.ErrNotFound, "clearing removes the key")

	got, err = s.Session(ctx, "client-b")
	require.NoError(t, err)
	assert.Equal(t, "u2", got)

	require.NoError(t, s.SetSession(ctx, "client-a", ""), "clearing twice is a no-op")
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "currentUserId", SessionKey(""))
	assert.Equal(t, "currentUserId:c1", SessionKey("c1"))
}

func TestMutateRetriesLostSwaps(t *testing.T) {
	kv := &contendedKV{Store: memory.New(), losses: 2}
	var conflicts []string
	s := New(kv, WithMaxAttempts(3), WithConflictHook(func(key string) {
		conflicts = append(conflicts, key)
	}))

	require.NoError(t, s.InsertRequest(context.Background(), models.Request{ID: "r1", UserID: "u1"}))
	assert.Equal(t, []string{KeyRequests, KeyRequests}, conflicts)

	reqs, err := s.ListRequests(context.Background())
	require.NoError(t, err)
	assert.Len(t, reqs, 1)
}

func TestMutateGivesUpWithConflict(t *testing.T) {
	kv := &contendedKV{Store: memory.New(), losses: 10}
	s := New(kv, WithMaxAttempts(3))

	err := s.InsertUser(context.Background(), sampleUser("u1", "29901010100158"))
	assert.ErrorIs(t, err, ErrConflict)

	_, getErr := kv.Get(context.Background(), KeyUsers)
	assert.ErrorIs(t, getErr, storage.ErrNotFound, "a failed mutation must not leave a partial write")
}

func TestConcurrentInsertsAreNotLost(t *testing.T) {
	s := New(memory.New(), WithMaxAttempts(100))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.InsertRequest(ctx, models.Request{ID: fmt.Sprintf("r%d", i), UserID: "u1"}))
		}(i)
	}
	wg.Wait()

	reqs, err := s.ListRequests(ctx)
	require.NoError(t, err)
	assert.Len(t, reqs, 20)
}

func TestStoreErrorsPropagate(t *testing.T) {
	s := New(brokenKV{memory.New()})
	_, err := s.ListUsers(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestCorruptCollectionIsReported(t *testing.T) {
	kv := memory.New()
	require.NoError(t, kv.Set(context.Background(), KeyRequests, "{not json"))
	s := New(kv)

	_, err := s.ListRequests(context.Background())
	assert.Error(t, err)
	assert.Error(t, s.InsertRequest(context.Background(), models.Request{ID: "r1"}))
}
