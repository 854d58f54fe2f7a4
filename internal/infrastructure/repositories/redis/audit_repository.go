package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"nodegate/internal/core/domain"
	"nodegate/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// RedisAuditRepository stores one journal as a Redis list, appended on
// the right so List returns records oldest first.
type RedisAuditRepository struct {
	client *redis.Client
	key    string
}

func NewRedisAuditRepository(client *redis.Client, name string) ports.AuditRepository {
	return &RedisAuditRepository{
		client: client,
		key:    "nodegate:audit:" + name,
	}
}

func (r *RedisAuditRepository) Append(ctx context.Context, record domain.AuditRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal audit record: %w", err)
	}
	if err := r.client.RPush(ctx, r.key, data).Err(); err != nil {
		return fmt.Errorf("failed to append audit record to Redis: %w", err)
	}
	return nil
}

func (r *RedisAuditRepository) List(ctx context.Context) ([]domain.AuditRecord, error) {
	items, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read audit journal from Redis: %w", err)
	}

	records := []domain.AuditRecord{}
	for _, item := range items {
		var record domain.AuditRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit record: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}
