package topicquiz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// QuestionsKey is the session key the serialized quiz is stored under.
const QuestionsKey = "questions"

// SessionStore holds at most one quiz per caller
type SessionStore interface {
	// Get returns the caller's quiz; ok is false when none is stored or it expired.
	Get(ctx context.Context, callerID string) (quiz *QuizSet, ok bool, err error)
	// Put replaces the caller's quiz.
	Put(ctx context.Context, callerID string, quiz *QuizSet) error
}

type memoryEntry struct {
	values    map[string][]byte
	expiresAt time.Time
}

// MemoryStore is an in-process SessionStore. Quizzes are kept serialized so
// callers never share memory with the stored copy.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*memoryEntry
}

// NewMemoryStore creates a memory store; ttl <= 0 keeps entries forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*memoryEntry),
	}
}

// Get returns the caller's quiz
func (ms *MemoryStore) Get(_ context.Context, callerID string) (*QuizSet, bool, error) {
	ms.mu.Lock()
	entry, exists := ms.entries[callerID]
	if exists && ms.expired(entry) {
		delete(ms.entries, callerID)
		exists = false
	}
	var data []byte
	if exists {
		data = entry.values[QuestionsKey]
	}
	ms.mu.Unlock()

	if data == nil {
		return nil, false, nil
	}

	var quiz QuizSet
	if err := json.Unmarshal(data, &quiz); err != nil {
		return nil, false, fmt.Errorf("failed to decode session quiz: %w", err)
	}
	return &quiz, true, nil
}

// Put replaces the caller's quiz
func (ms *MemoryStore) Put(_ context.Context, callerID string, quiz *QuizSet) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("failed to encode session quiz: %w", err)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.sweep()

	entry := &memoryEntry{values: map[string][]byte{QuestionsKey: data}}
	if ms.ttl > 0 {
		entry.expiresAt = ms.now().Add(ms.ttl)
	}
	ms.entries[callerID] = entry
	return nil
}

func (ms *MemoryStore) expired(entry *memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !ms.now().Before(entry.expiresAt)
}

// sweep drops expired entries; callers hold mu.
func (ms *MemoryStore) sweep() {
	for id, entry := range ms.entries {
		if ms.expired(entry) {
			delete(ms.entries, id)
		}
	}
}

// RedisStore keeps quizzes in redis under topicquiz:<caller>:questions
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to the redis server at url (redis://host:port/db)
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return NewRedisStoreWithClient(client, ttl), nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (rs *RedisStore) key(callerID string) string {
	return fmt.Sprintf("topicquiz:%s:%s", callerID, QuestionsKey)
}

// Get returns the caller's quiz
func (rs *RedisStore) Get(ctx context.Context, callerID string) (*QuizSet, bool, error) {
	data, err := rs.client.Get(ctx, rs.key(callerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get session quiz: %w", err)
	}

	var quiz QuizSet
	if err := json.Unmarshal(data, &quiz); err != nil {
		return nil, false, fmt.Errorf("failed to decode session quiz: %w", err)
	}
	return &quiz, true, nil
}

// Put replaces the caller's quiz
func (rs *RedisStore) Put(ctx context.Context, callerID string, quiz *QuizSet) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("failed to encode session quiz: %w", err)
	}
	if err := rs.client.Set(ctx, rs.key(callerID), data, rs.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session quiz: %w", err)
	}
	return nil
}

// Close closes the redis client
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
