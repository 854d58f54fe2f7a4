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

type RedisNodeRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisNodeRepository(client *redis.Client) ports.NodeRepository {
	return &RedisNodeRepository{
		client: client,
		prefix: "nodegate:node:",
	}
}

func (r *RedisNodeRepository) nodeKey(id domain.NodeID) string {
	return r.prefix + string(id)
}

const nodeIndexKey = "nodegate:nodes"

func (r *RedisNodeRepository) List(ctx context.Context) ([]domain.Node, error) {
	ids, err := r.client.SMembers(ctx, nodeIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list node ids from Redis: %w", err)
	}
	sort.Strings(ids)

	nodes := []domain.Node{}
	for _, id := range ids {
		node, err := r.GetByID(ctx, domain.NodeID(id))
		if err == domain.ErrNodeNotFound {
			// Index entry outlived the node key. Skip it.
			continue
		}
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *node)
	}
	return nodes, nil
}

func (r *RedisNodeRepository) GetByID(ctx context.Context, id domain.NodeID) (*domain.Node, error) {
	data, err := r.client.Get(ctx, r.nodeKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrNodeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get node from Redis: %w", err)
	}

	var node domain.Node
	if err := json.Unmarshal([]byte(data), &node); err != nil {
		return nil, fmt.Errorf("failed to unmarshal node: %w", err)
	}
	return &node, nil
}

func (r *RedisNodeRepository) Create(ctx context.Context, node *domain.Node) error {
	data, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("failed to marshal node: %w", err)
	}
	if err := r.client.Set(ctx, r.nodeKey(node.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set node in Redis: %w", err)
	}
	if err := r.client.SAdd(ctx, nodeIndexKey, string(node.ID)).Err(); err != nil {
		return fmt.Errorf("failed to index node in Redis: %w", err)
	}
	return nil
}

func (r *RedisNodeRepository) Update(ctx context.Context, node *domain.Node) error {
	exists, err := r.client.Exists(ctx, r.nodeKey(node.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check node in Redis: %w", err)
	}
	if exists == 0 {
		return domain.ErrNodeNotFound
	}

	data, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("failed to marshal node: %w", err)
	}
	if err := r.client.Set(ctx, r.nodeKey(node.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set node in Redis: %w", err)
	}
	return nil
}

func (r *RedisNodeRepository) Delete(ctx context.Context, id domain.NodeID) error {
	removed, err := r.client.Del(ctx, r.nodeKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete node from Redis: %w", err)
	}
	if removed == 0 {
		return domain.ErrNodeNotFound
	}
	if err := r.client.SRem(ctx, nodeIndexKey, string(id)).Err(); err != nil {
		return fmt.Errorf("failed to unindex node in Redis: %w", err)
	}
	return nil
}
