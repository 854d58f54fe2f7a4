package file

import (
	"context"

	"nodegate/internal/core/domain"
	"nodegate/internal/core/ports"
)

// FileAuditRepository is one journal backed by one JSON file. The
// factory creates an instance per journal name.
type FileAuditRepository struct {
	store *documentStore
}

func NewFileAuditRepository(dir, name string) ports.AuditRepository {
	return &FileAuditRepository{store: newDocumentStore(dir, name)}
}

func (r *FileAuditRepository) Append(ctx context.Context, record domain.AuditRecord) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	records := []domain.AuditRecord{}
	if err := r.store.load(&records); err != nil {
		return err
	}
	records = append(records, record)
	return r.store.replace(records)
}

func (r *FileAuditRepository) List(ctx context.Context) ([]domain.AuditRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	records := []domain.AuditRecord{}
	if err := r.store.load(&records); err != nil {
		return nil, err
	}
	return records, nil
}
