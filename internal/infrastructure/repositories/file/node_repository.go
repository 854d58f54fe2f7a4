package file

import (
	"context"

	"nodegate/internal/core/domain"
	"nodegate/internal/core/ports"
)

type FileNodeRepository struct {
	store *documentStore
}

func NewFileNodeRepository(dir string) ports.NodeRepository {
	return &FileNodeRepository{store: newDocumentStore(dir, "nodes.json")}
}

func (r *FileNodeRepository) List(ctx context.Context) ([]domain.Node, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	nodes := []domain.Node{}
	if err := r.store.load(&nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (r *FileNodeRepository) GetByID(ctx context.Context, id domain.NodeID) (*domain.Node, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	nodes := []domain.Node{}
	if err := r.store.load(&nodes); err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.ID == id {
			node := n
			return &node, nil
		}
	}
	return nil, domain.ErrNodeNotFound
}

func (r *FileNodeRepository) Create(ctx context.Context, node *domain.Node) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	nodes := []domain.Node{}
	if err := r.store.load(&nodes); err != nil {
		return err
	}
	nodes = append(nodes, *node)
	return r.store.replace(nodes)
}

func (r *FileNodeRepository) Update(ctx context.Context, node *domain.Node) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	nodes := []domain.Node{}
	if err := r.store.load(&nodes); err != nil {
		return err
	}
	for i := range nodes {
		if nodes[i].ID == node.ID {
			nodes[i] = *node
			return r.store.replace(nodes)
		}
	}
	return domain.ErrNodeNotFound
}

func (r *FileNodeRepository) Delete(ctx context.Context, id domain.NodeID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	nodes := []domain.Node{}
	if err := r.store.load(&nodes); err != nil {
		return err
	}
	kept := nodes[:0]
	for _, n := range nodes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(nodes) {
		return domain.ErrNodeNotFound
	}
	return r.store.replace(kept)
}
