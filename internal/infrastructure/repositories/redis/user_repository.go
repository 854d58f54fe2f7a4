package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"nodegate/internal/core/domain"
	"nodegate/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisUserRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisUserRepository(client *redis.Client) ports.UserRepository {
	return &RedisUserRepository{
		client: client,
		prefix: "nodegate:user:",
	}
}

func (r *RedisUserRepository) userKey(username string) string {
	return r.prefix + username
}

const userIndexKey = "nodegate:users"

func (r *RedisUserRepository) List(ctx context.Context) ([]domain.User, error) {
	usernames, err := r.client.SMembers(ctx, userIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list usernames from Redis: %w", err)
	}
	sort.Strings(usernames)

	users := []domain.User{}
	for _, username := range usernames {
		user, err := r.GetByUsername(ctx, username)
		if err == domain.ErrUserNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, nil
}

func (r *RedisUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	data, err := r.client.Get(ctx, r.userKey(username)).Result()
	if err == redis.Nil {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user from Redis: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &user, nil
}

func (r *RedisUserRepository) Create(ctx context.Context, user *domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	ok, err := r.client.SetNX(ctx, r.userKey(user.Username), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to set user in Redis: %w", err)
	}
	if !ok {
		return domain.ErrUserExists
	}
	if err := r.client.SAdd(ctx, userIndexKey, user.Username).Err(); err != nil {
		return fmt.Errorf("failed to index user in Redis: %w", err)
	}
	return nil
}

func (r *RedisUserRepository) Update(ctx context.Context, user *domain.User) error {
	exists, err := r.client.Exists(ctx, r.userKey(user.Username)).Result()
	if err != nil {
		return fmt.Errorf("failed to check user in Redis: %w", err)
	}
	if exists == 0 {
		return domain.ErrUserNotFound
	}

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := r.client.Set(ctx, r.userKey(user.Username), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set user in Redis: %w", err)
	}
	return nil
}

func (r *RedisUserRepository) Delete(ctx context.Context, username string) error {
	removed, err := r.client.Del(ctx, r.userKey(username)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete user from Redis: %w", err)
	}
	if removed == 0 {
		return domain.ErrUserNotFound
	}
	if err := r.client.SRem(ctx, userIndexKey, username).Err(); err != nil {
		return fmt.Errorf("failed to unindex user in Redis: %w", err)
	}
	return nil
}
