package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"nodegate/internal/core/domain"
	"nodegate/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisAssignmentRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisAssignmentRepository(client *redis.Client) ports.AssignmentRepository {
	return &RedisAssignmentRepository{
		client: client,
		prefix: "nodegate:assignments:",
	}
}

func (r *RedisAssignmentRepository) assignmentKey(username string) string {
	return r.prefix + username
}

const assignmentIndexKey = "nodegate:assignment-users"

func (r *RedisAssignmentRepository) All(ctx context.Context) (domain.AssignmentTable, error) {
	usernames, err := r.client.SMembers(ctx, assignmentIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list assignment users from Redis: %w", err)
	}

	table := domain.AssignmentTable{}
	for _, username := range usernames {
		entries, err := r.ListForUser(ctx, username)
		if err != nil {
			return nil, err
		}
		if len(entries) > 0 {
			table[username] = entries
		}
	}
	return table, nil
}

func (r *RedisAssignmentRepository) ListForUser(ctx context.Context, username string) ([]domain.NodeAssignment, error) {
	data, err := r.client.Get(ctx, r.assignmentKey(username)).Result()
	if err == redis.Nil {
		return []domain.NodeAssignment{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments from Redis: %w", err)
	}

	entries := []domain.NodeAssignment{}
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assignments: %w", err)
	}
	return entries, nil
}

func (r *RedisAssignmentRepository) ReplaceForUser(ctx context.Context, username string, entries []domain.NodeAssignment) error {
	if entries == nil {
		entries = []domain.NodeAssignment{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal assignments: %w", err)
	}
	if err := r.client.Set(ctx, r.assignmentKey(username), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set assignments in Redis: %w", err)
	}
	if err := r.client.SAdd(ctx, assignmentIndexKey, username).Err(); err != nil {
		return fmt.Errorf("failed to index assignments in Redis: %w", err)
	}
	return nil
}

func (r *RedisAssignmentRepository) RemoveUser(ctx context.Context, username string) error {
	if err := r.client.Del(ctx, r.assignmentKey(username)).Err(); err != nil {
		return fmt.Errorf("failed to delete assignments from Redis: %w", err)
	}
	if err := r.client.SRem(ctx, assignmentIndexKey, username).Err(); err != nil {
		return fmt.Errorf("failed to unindex assignments in Redis: %w", err)
	}
	return nil
}

func (r *RedisAssignmentRepository) RemoveNode(ctx context.Context, id domain.NodeID) error {
	usernames, err := r.client.SMembers(ctx, assignmentIndexKey).Result()
	if err != nil {
		return fmt.Errorf("failed to list assignment users from Redis: %w", err)
	}

	for _, username := range usernames {
		entries, err := r.ListForUser(ctx, username)
		if err != nil {
			return err
		}
		kept := entries[:0]
		for _, a := range entries {
			if a.NodeID != id {
				kept = append(kept, a)
			}
		}
		if len(kept) == len(entries) {
			continue
		}
		if err := r.ReplaceForUser(ctx, username, kept); err != nil {
			return err
		}
	}
	return nil
}
