package chain

import (
	"fmt"
	"sort"
	"sync"
)

// Store persists transaction receipts and deployment records.
type Store interface {
	// PutReceipt stores a receipt keyed by its transaction hash.
	PutReceipt(r *Receipt) error

	// GetReceipt retrieves a receipt by transaction hash.
	GetReceipt(hash Hash) (*Receipt, error)

	// ListReceipts returns all receipts ordered by block.
	ListReceipts() ([]*Receipt, error)

	// PutDeployment stores (or replaces) a named deployment.
	PutDeployment(d *Deployment) error

	// GetDeployment retrieves a deployment by contract name.
	GetDeployment(name string) (*Deployment, error)

	// ListDeployments returns all deployments ordered by block.
	ListDeployments() ([]*Deployment, error)
}

// MemStore is an in-memory implementation of Store for testing.
type MemStore struct {
	mu          sync.RWMutex
	receipts    map[Hash]*Receipt
	deployments map[string]*Deployment
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		receipts:    make(map[Hash]*Receipt),
		deployments: make(map[string]*Deployment),
	}
}

// PutReceipt stores a receipt.
func (s *MemStore) PutReceipt(r *Receipt) error {
	if r == nil {
		return fmt.Errorf("%w: receipt", ErrNilParam)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.receipts[r.TxHash]; exists {
		return ErrDuplicateReceipt
	}
	s.receipts[r.TxHash] = r
	return nil
}

// GetReceipt retrieves a receipt by transaction hash.
func (s *MemStore) GetReceipt(hash Hash) (*Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.receipts[hash]
	if !ok {
		return nil, ErrReceiptNotFound
	}
	return r, nil
}

// ListReceipts returns all receipts ordered by block.
func (s *MemStore) ListReceipts() ([]*Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Receipt, 0, len(s.receipts))
	for _, r := range s.receipts {
		out = append(out, r)
	}
	sortReceipts(out)
	return out, nil
}

// PutDeployment stores a named deployment, replacing any previous record.
func (s *MemStore) PutDeployment(d *Deployment) error {
	if d == nil {
		return fmt.Errorf("%w: deployment", ErrNilParam)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deployments[d.Name] = d
	return nil
}

// GetDeployment retrieves a deployment by contract name.
func (s *MemStore) GetDeployment(name string) (*Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.deployments[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrDeploymentNotFound, name)
	}
	return d, nil
}

// ListDeployments returns all deployments ordered by block, then name.
func (s *MemStore) ListDeployments() ([]*Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Deployment, 0, len(s.deployments))
	for _, d := range s.deployments {
		out = append(out, d)
	}
	sortDeployments(out)
	return out, nil
}

func sortDeployments(ds []*Deployment) {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Block != ds[j].Block {
			return ds[i].Block < ds[j].Block
		}
		return ds[i].Name < ds[j].Name
	})
}
