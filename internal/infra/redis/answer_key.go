package redis

import (
	"context"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// AnswerKeyLoader fetches a quiz's answer key from the backing store.
type AnswerKeyLoader interface {
	LoadAnswerKey(ctx context.Context, quizID string) (map[string]string, error)
}

// AnswerKeyCache keeps answer keys in Redis (one hash per quiz) and falls
// back to the loader on cache miss.
// Keys are stored as: HSET quiz:{quizID}:answers {questionID} {correctLabel}
type AnswerKeyCache struct {
	client *redis.Client
	loader AnswerKeyLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewAnswerKeyCache(client *redis.Client, loader AnswerKeyLoader, ttl time.Duration) *AnswerKeyCache {
	return &AnswerKeyCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *AnswerKeyCache) AnswerKey(ctx context.Context, quizID string) (map[string]string, error) {
	cacheKey := c.key(quizID)

	cached, err := c.client.HGetAll(ctx, cacheKey).Result()
	if err == nil && len(cached) > 0 {
		return cached, nil
	}

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		cached, err := c.client.HGetAll(ctx, cacheKey).Result()
		if err == nil && len(cached) > 0 {
			return cached, nil
		}

		key, err := c.loader.LoadAnswerKey(ctx, quizID)
		if err != nil {
			return nil, err
		}

		if len(key) > 0 {
			pipe := c.client.Pipeline()
			for questionID, label := range key {
				pipe.HSet(ctx, cacheKey, questionID, label)
			}
			if ttl := c.ttlWithJitter(); ttl > 0 {
				pipe.Expire(ctx, cacheKey, ttl)
			}
			_, _ = pipe.Exec(ctx)
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]string), nil
}

// Invalidate drops the cached key, e.g. after a teacher adds a question.
func (c *AnswerKeyCache) Invalidate(ctx context.Context, quizID string) {
	_ = c.client.Del(ctx, c.key(quizID)).Err()
}

func (c *AnswerKeyCache) key(quizID string) string {
	return "quiz:" + quizID + ":answers"
}

func (c *AnswerKeyCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
