package attendance

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RecordsKey is the well-known key holding the serialized record set.
const RecordsKey = "attendance:records"

// RedisBackend stores the record set as one JSON blob under RecordsKey.
type RedisBackend struct {
	client *redis.Client
	key    string
}

// NewRedisBackend creates a redis backend. An empty key uses RecordsKey.
func NewRedisBackend(client *redis.Client, key string) *RedisBackend {
	if key == "" {
		key = RecordsKey
	}
	return &RedisBackend{client: client, key: key}
}

// Load reads the full record set. A missing key is an empty set.
func (b *RedisBackend) Load(ctx context.Context) ([]Record, error) {
	data, err := b.client.Get(ctx, b.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Save overwrites the record set blob.
func (b *RedisBackend) Save(ctx context.Context, records []Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return b.client.Set(ctx, b.key, data, 0).Err()
}
