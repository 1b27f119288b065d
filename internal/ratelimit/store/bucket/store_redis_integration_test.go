//go:build integration

package bucket_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"gatepass/internal/ratelimit/store/bucket"
	"gatepass/pkg/requestcontext"
	"gatepass/pkg/testutil/containers"
)

type RedisBucketStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *bucket.RedisBucketStore
}

func TestRedisBucketStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisBucketStoreSuite))
}

func (s *RedisBucketStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = bucket.NewRedisBucketStore(s.redis.Client)
}

func (s *RedisBucketStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisBucketStoreSuite) TestLimitAndSlide() {
	start := time.Now().Truncate(time.Millisecond)
	at := func(offset time.Duration) context.Context {
		return requestcontext.WithTime(context.Background(), start.Add(offset))
	}

	for i := range 3 {
		result, err := s.store.Allow(at(time.Duration(i)*time.Second), "ratelimit:chat:user:a", 3, time.Minute)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(2-i, result.Remaining)
	}

	denied, err := s.store.Allow(at(5*time.Second), "ratelimit:chat:user:a", 3, time.Minute)
	s.Require().NoError(err)
	s.False(denied.Allowed)
	s.True(start.Add(time.Minute).Equal(denied.ResetAt))
	s.Equal(55, denied.RetryAfter)

	slid, err := s.store.Allow(at(time.Minute+500*time.Millisecond), "ratelimit:chat:user:a", 3, time.Minute)
	s.Require().NoError(err)
	s.True(slid.Allowed)
}

func (s *RedisBucketStoreSuite) TestReset() {
	ctx := context.Background()
	for range 2 {
		_, err := s.store.Allow(ctx, "ratelimit:chat:user:b", 2, time.Minute)
		s.Require().NoError(err)
	}
	s.Require().NoError(s.store.Reset(ctx, "ratelimit:chat:user:b"))

	result, err := s.store.Allow(ctx, "ratelimit:chat:user:b", 2, time.Minute)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *RedisBucketStoreSuite) TestConcurrentCallersShareOneBudget() {
	const callers = 20
	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
	)
	ctx := requestcontext.WithTime(context.Background(), time.Now())
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.store.Allow(ctx, "ratelimit:chat:user:c", 4, time.Minute)
			if err == nil && result.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(4), allowed.Load())
}
