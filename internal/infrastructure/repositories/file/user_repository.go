package file

import (
	"context"

	"nodegate/internal/core/domain"
	"nodegate/internal/core/ports"
)

type FileUserRepository struct {
	store *documentStore
}

func NewFileUserRepository(dir string) ports.UserRepository {
	return &FileUserRepository{store: newDocumentStore(dir, "users.json")}
}

func (r *FileUserRepository) List(ctx context.Context) ([]domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	users := []domain.User{}
	if err := r.store.load(&users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *FileUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	users := []domain.User{}
	if err := r.store.load(&users); err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Username == username {
			user := u
			return &user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *FileUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users := []domain.User{}
	if err := r.store.load(&users); err != nil {
		return err
	}
	for _, u := range users {
		if u.Username == user.Username {
			return domain.ErrUserExists
		}
	}
	users = append(users, *user)
	return r.store.replace(users)
}

func (r *FileUserRepository) Update(ctx context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users := []domain.User{}
	if err := r.store.load(&users); err != nil {
		return err
	}
	for i := range users {
		if users[i].Username == user.Username {
			users[i] = *user
			return r.store.replace(users)
		}
	}
	return domain.ErrUserNotFound
}

func (r *FileUserRepository) Delete(ctx context.Context, username string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users := []domain.User{}
	if err := r.store.load(&users); err != nil {
		return err
	}
	kept := users[:0]
	for _, u := range users {
		if u.Username != username {
			kept = append(kept, u)
		}
	}
	if len(kept) == len(users) {
		return domain.ErrUserNotFound
	}
	return r.store.replace(kept)
}
