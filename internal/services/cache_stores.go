package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const redisKeyPrefix = "stockcast"

type redisStore struct {
	client *redis.Client
}

func newRedisStore(ctx context.Context, url string) (*redisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &redisStore{client: client}, nil
}

func (s *redisStore) Name() string { return "redis" }

func (s *redisStore) key(collection, key string) string {
	return redisKeyPrefix + ":" + collection + ":" + key
}

func (s *redisStore) Get(ctx context.Context, collection, key string) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, s.key(collection, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (s *redisStore) Set(ctx context.Context, collection, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(collection, key), value, ttl).Err()
}

func (s *redisStore) Clear(ctx context.Context, collection string) error {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.key(collection, "*"), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *redisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}

type firestoreStore struct {
	client *firestore.Client
}

type firestoreEntry struct {
	Payload   []byte    `firestore:"payload"`
	ExpiresAt time.Time `firestore:"expiresAt"`
}

func newFirestoreStore(ctx context.Context, projectID string) (*firestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &firestoreStore{client: client}, nil
}

func (s *firestoreStore) Name() string { return "firestore" }

// docID keeps keys valid as Firestore document IDs
func docID(key string) string {
	return strings.ReplaceAll(key, "/", "_")
}

func (s *firestoreStore) Get(ctx context.Context, collection, key string) ([]byte, bool, error) {
	doc, err := s.client.Collection(collection).Doc(docID(key)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entry firestoreEntry
	if err := doc.DataTo(&entry); err != nil {
		return nil, false, err
	}
	if time.Now().After(entry.ExpiresAt) {
		return nil, false, nil
	}
	return entry.Payload, true, nil
}

func (s *firestoreStore) Set(ctx context.Context, collection, key string, value []byte, ttl time.Duration) error {
	_, err := s.client.Collection(collection).Doc(docID(key)).Set(ctx, firestoreEntry{
		Payload:   value,
		ExpiresAt: time.Now().Add(ttl),
	})
	return err
}

func (s *firestoreStore) Clear(ctx context.Context, collection string) error {
	iter := s.client.Collection(collection).Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return err
		}
	}
}

func (s *firestoreStore) Ping(ctx context.Context) error {
	iter := s.client.Collection(tickersCollection).Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return err
	}
	return nil
}

func (s *firestoreStore) Close() error {
	return s.client.Close()
}
