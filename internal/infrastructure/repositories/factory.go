package repositories

import (
	"context"
	"fmt"
	"os"

	"nodegate/internal/core/ports"
	"nodegate/internal/infrastructure/repositories/file"
	redisrepo "nodegate/internal/infrastructure/repositories/redis"
	"nodegate/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RepositoryFactory creates repositories with fallback support
type RepositoryFactory struct {
	useRedis    bool
	redisClient *redis.Client
	dataDir     string
	logger      *zap.SugaredLogger
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		useRedis: cfg.Redis.Enabled,
		dataDir:  cfg.Storage.DataDir,
		logger:   logger,
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", cfg.Storage.DataDir, err)
	}

	// Try to connect to Redis if enabled
	if cfg.Redis.Enabled {
		client, err := redisrepo.NewRedisClient(
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			logger,
		)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to file repositories",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("using Redis repositories")
		}
	}

	if !factory.useRedis {
		logger.Infow("using file repositories", "data_dir", cfg.Storage.DataDir)
	}

	return factory, nil
}

func (f *RepositoryFactory) CreateNodeRepository() ports.NodeRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisNodeRepository(f.redisClient)
	}
	return file.NewFileNodeRepository(f.dataDir)
}

func (f *RepositoryFactory) CreateUserRepository() ports.UserRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisUserRepository(f.redisClient)
	}
	return file.NewFileUserRepository(f.dataDir)
}

func (f *RepositoryFactory) CreateAssignmentRepository() ports.AssignmentRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisAssignmentRepository(f.redisClient)
	}
	return file.NewFileAssignmentRepository(f.dataDir)
}

// CreateSecurityAuditRepository backs the security audit journal.
func (f *RepositoryFactory) CreateSecurityAuditRepository() ports.AuditRepository {
	return f.createAuditRepository("securityaudit")
}

// CreateEventAuditRepository backs the server event journal.
func (f *RepositoryFactory) CreateEventAuditRepository() ports.AuditRepository {
	return f.createAuditRepository("serverstatus")
}

// CreateCommandAuditRepository backs the command history journal.
func (f *RepositoryFactory) CreateCommandAuditRepository() ports.AuditRepository {
	return f.createAuditRepository("command-history")
}

func (f *RepositoryFactory) createAuditRepository(name string) ports.AuditRepository {
	if f.useRedis && f.redisClient != nil {
		return redisrepo.NewRedisAuditRepository(f.redisClient, name)
	}
	return file.NewFileAuditRepository(f.dataDir, name+".json")
}

// Close closes Redis connection if used
func (f *RepositoryFactory) Close() error {
	if f.redisClient != nil {
		return redisrepo.CloseRedisClient(f.redisClient)
	}
	return nil
}

// HealthCheck checks Redis connection health
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.useRedis && f.redisClient != nil {
		return f.redisClient.Ping(ctx).Err()
	}
	return nil
}
