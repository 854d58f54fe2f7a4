package file

import (
	"context"

	"nodegate/internal/core/domain"
	"nodegate/internal/core/ports"
)

type FileAssignmentRepository struct {
	store *documentStore
}

func NewFileAssignmentRepository(dir string) ports.AssignmentRepository {
	return &FileAssignmentRepository{store: newDocumentStore(dir, "assignments.json")}
}

func (r *FileAssignmentRepository) All(ctx context.Context) (domain.AssignmentTable, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	table := domain.AssignmentTable{}
	if err := r.store.load(&table); err != nil {
		return nil, err
	}
	return table, nil
}

func (r *FileAssignmentRepository) ListForUser(ctx context.Context, username string) ([]domain.NodeAssignment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	table := domain.AssignmentTable{}
	if err := r.store.load(&table); err != nil {
		return nil, err
	}
	entries := table[username]
	if entries == nil {
		entries = []domain.NodeAssignment{}
	}
	return entries, nil
}

func (r *FileAssignmentRepository) ReplaceForUser(ctx context.Context, username string, entries []domain.NodeAssignment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	table := domain.AssignmentTable{}
	if err := r.store.load(&table); err != nil {
		return err
	}
	if entries == nil {
		entries = []domain.NodeAssignment{}
	}
	table[username] = entries
	return r.store.replace(table)
}

func (r *FileAssignmentRepository) RemoveUser(ctx context.Context, username string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	table := domain.AssignmentTable{}
	if err := r.store.load(&table); err != nil {
		return err
	}
	if _, ok := table[username]; !ok {
		return nil
	}
	delete(table, username)
	return r.store.replace(table)
}

func (r *FileAssignmentRepository) RemoveNode(ctx context.Context, id domain.NodeID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	table := domain.AssignmentTable{}
	if err := r.store.load(&table); err != nil {
		return err
	}
	changed := false
	for username, entries := range table {
		kept := entries[:0]
		for _, a := range entries {
			if a.NodeID != id {
				kept = append(kept, a)
			}
		}
		if len(kept) != len(entries) {
			table[username] = kept
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return r.store.replace(table)
}
