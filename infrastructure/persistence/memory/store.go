// Package memory keeps users, data sources and mappings in process memory.
// It backs STORE_BACKEND=memory and the service and router tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"schemagraph/domain/core/entities"
	apperrors "schemagraph/pkg/errors"
)

// Store implements the user, data source and mapping repositories
type Store struct {
	mu          sync.RWMutex
	users       map[string]*entities.User
	dataSources map[string]*entities.DataSource
	mappings    []*entities.Mapping
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		users:       make(map[string]*entities.User),
		dataSources: make(map[string]*entities.DataSource),
	}
}

// Users returns the store as a user repository
func (s *Store) Users() *UserRepository { return &UserRepository{s} }

// DataSources returns the store as a data source repository
func (s *Store) DataSources() *DataSourceRepository { return &DataSourceRepository{s} }

// Mappings returns the store as a mapping repository
func (s *Store) Mappings() *MappingRepository { return &MappingRepository{s} }

// UserRepository is the user view of a Store
type UserRepository struct{ s *Store }

// Save stores a user; usernames are unique
func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.users[user.Username]; exists {
		return apperrors.NewConflictError("User already exists")
	}
	u := *user
	r.s.users[user.Username] = &u
	return nil
}

// FindByUsername looks a user up by name
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[username]
	if !ok {
		return nil, apperrors.NewNotFoundError("user")
	}
	out := *u
	return &out, nil
}

// DataSourceRepository is the data source view of a Store
type DataSourceRepository struct{ s *Store }

// Save stores a data source
func (r *DataSourceRepository) Save(ctx context.Context, ds *entities.DataSource) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d := *ds
	r.s.dataSources[ds.ID] = &d
	return nil
}

// FindByID returns the data source if ownerID owns it
func (r *DataSourceRepository) FindByID(ctx context.Context, ownerID, id string) (*entities.DataSource, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ds, ok := r.s.dataSources[id]
	if !ok || ds.OwnerID != ownerID {
		return nil, apperrors.NewNotFoundError("datasource")
	}
	out := *ds
	return &out, nil
}

// FindByOwner lists the owner's data sources in creation order
func (r *DataSourceRepository) FindByOwner(ctx context.Context, ownerID string) ([]*entities.DataSource, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*entities.DataSource{}
	for _, ds := range r.s.dataSources {
		if ds.OwnerID == ownerID {
			d := *ds
			out = append(out, &d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// MappingRepository is the mapping view of a Store
type MappingRepository struct{ s *Store }

// Save appends a mapping
func (r *MappingRepository) Save(ctx context.Context, mapping *entities.Mapping) (*entities.Mapping, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m := *mapping
	r.s.mappings = append(r.s.mappings, &m)
	out := m
	return &out, nil
}

// FindAll lists the owner's mappings for a data source in insertion order
func (r *MappingRepository) FindAll(ctx context.Context, ownerID, dataSourceID string) ([]*entities.Mapping, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []*entities.Mapping{}
	for _, m := range r.s.mappings {
		if m.OwnerID == ownerID && m.DatasourceID == dataSourceID {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}
