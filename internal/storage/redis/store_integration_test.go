package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/hongminglow/recruit-portal/internal/storage"
)

type RedisStoreSuite struct {
	suite.Suite
	store *Store
	key   string
}

func TestRedisStoreSuite(t *testing.T) {
	if os.Getenv("RUN_REDIS_INTEGRATION") != "true" {
		t.Skip("set RUN_REDIS_INTEGRATION=true to run this integration test")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/0"
	}
	store, err := Connect(context.Background(), url)
	s.Require().NoError(err)
	s.store = store
}

func (s *RedisStoreSuite) TearDownSuite() {
	if s.store != nil {
		s.NoError(s.store.Close())
	}
}

func (s *RedisStoreSuite) SetupTest() {
	s.key = fmt.Sprintf("itest_%d", time.Now().UnixNano())
}

func (s *RedisStoreSuite) TearDownTest() {
	_ = s.store.Delete(context.Background(), s.key)
}

func (s *RedisStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	_, err := s.store.Get(ctx, s.key)
	s.ErrorIs(err, storage.ErrNotFound)

	s.Require().NoError(s.store.Set(ctx, s.key, "[]"))
	got, err := s.store.Get(ctx, s.key)
	s.Require().NoError(err)
	s.Equal("[]", got)
}

func (s *RedisStoreSuite) TestCompareAndSwap() {
	ctx := context.Background()

	ok, err := s.store.CompareAndSwap(ctx, s.key, "", "a")
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.CompareAndSwap(ctx, s.key, "", "b")
	s.Require().NoError(err)
	s.False(ok)

	ok, err = s.store.CompareAndSwap(ctx, s.key, "a", "b")
	s.Require().NoError(err)
	s.True(ok)

	got, err := s.store.Get(ctx, s.key)
	s.Require().NoError(err)
	s.Equal("b", got)
}
