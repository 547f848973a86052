package state

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"hotel-bot/internal/models"
)

type RedisStoreSuite struct {
	storeSuite
	mr  *miniredis.Miniredis
	rdb *redis.Client
}

func (s *RedisStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.mr = miniredis.RunT(s.T())
	s.rdb = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.store = NewRedisStore(s.rdb, 30*time.Minute)
}

func (s *RedisStoreSuite) TearDownTest() {
	_ = s.rdb.Close()
}

func TestRedisStoreSuite(t *testing.T) {
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) TestTTL() {
	s.Require().NoError(s.store.Put(s.ctx, testKey, models.NewSearchSession(models.CommandBudget, 1)))
	s.Equal(30*time.Minute, s.mr.TTL("hotelbot:session:10:20"))

	s.mr.FastForward(31 * time.Minute)
	got, err := s.store.Get(s.ctx, testKey)
	s.NoError(err)
	s.Nil(got)
}

func (s *RedisStoreSuite) TestCorruptValue() {
	s.Require().NoError(s.mr.Set("hotelbot:session:10:20", "{not json"))
	_, err := s.store.Get(s.ctx, testKey)
	s.Error(err)
}
