package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"proctor-quiz-service/internal/app"
)

// AnswerKeyLoader fetches a quiz's answer key from the backing store.
type AnswerKeyLoader interface {
	LoadAnswerKey(ctx context.Context, quizID string) (map[string]string, error)
}

// AnswerKeyCache caches answer keys with TTL to avoid re-reading the full
// question set on every submission.
type AnswerKeyCache struct {
	loader AnswerKeyLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedKey
}

type cachedKey struct {
	key       map[string]string
	expiresAt time.Time
}

func NewAnswerKeyCache(loader AnswerKeyLoader, ttl time.Duration) *AnswerKeyCache {
	return &AnswerKeyCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedKey),
	}
}

func (c *AnswerKeyCache) AnswerKey(ctx context.Context, quizID string) (map[string]string, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.key, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(quizID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[quizID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.key, nil
		}
		c.mu.RUnlock()

		key, err := c.loader.LoadAnswerKey(ctx, quizID)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[quizID] = cachedKey{key: key, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]string), nil
}

// Invalidate drops the cached key, e.g. after a teacher adds a question.
func (c *AnswerKeyCache) Invalidate(_ context.Context, quizID string) {
	c.mu.Lock()
	delete(c.cache, quizID)
	c.mu.Unlock()
}

func (c *AnswerKeyCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// QuestionAnswerKeyLoader reads the answer key straight from a question
// repository; it backs the cache in DB-less mode and in tests.
type QuestionAnswerKeyLoader struct {
	questions app.QuestionRepository
}

func NewQuestionAnswerKeyLoader(questions app.QuestionRepository) *QuestionAnswerKeyLoader {
	return &QuestionAnswerKeyLoader{questions: questions}
}

func (l *QuestionAnswerKeyLoader) LoadAnswerKey(ctx context.Context, quizID string) (map[string]string, error) {
	questions, err := l.questions.ListByQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	key := make(map[string]string, len(questions))
	for _, q := range questions {
		key[q.ID] = q.CorrectLabel
	}
	return key, nil
}
