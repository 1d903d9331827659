package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/peckin/peckin/backend/go-services/internal/profiles"
	"github.com/peckin/peckin/backend/go-services/internal/profiles/repository"
)

var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrUnknownCollection = errors.New("unknown collection")
	ErrInvalidData       = errors.New("record data must be a JSON object")
)

// Service applies access rules on top of a record repository:
//   - only configured collections are addressable
//   - in "users" the record id must equal the caller id
//   - elsewhere the caller must own the record
type Service struct {
	repo        repository.Repository
	collections map[string]bool
}

func New(repo repository.Repository, collections []string) *Service {
	allowed := map[string]bool{}
	for _, c := range collections {
		allowed[c] = true
	}
	return &Service{repo: repo, collections: allowed}
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService(collections ...string) *Service {
	if len(collections) == 0 {
		collections = []string{profiles.UsersCollection}
	}
	return New(repository.NewMemoryRepo(), collections)
}

func (s *Service) checkKey(uid, collection, id string) error {
	if !s.collections[collection] {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	if uid == "" {
		return ErrPermissionDenied
	}
	if collection == profiles.UsersCollection && id != uid {
		return ErrPermissionDenied
	}
	return nil
}

// Get returns the record or (nil, nil) when none exists.
func (s *Service) Get(ctx context.Context, uid, collection, id string) (*profiles.Record, error) {
	if err := s.checkKey(uid, collection, id); err != nil {
		return nil, err
	}
	rec, err := s.repo.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	if rec.OwnerID != uid {
		return nil, ErrPermissionDenied
	}
	return rec, nil
}

// Create stores data under a server-generated id. Not allowed in "users",
// whose keys are account ids.
func (s *Service) Create(ctx context.Context, uid, collection string, data map[string]interface{}) (string, error) {
	if !s.collections[collection] {
		return "", fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	if uid == "" || collection == profiles.UsersCollection {
		return "", ErrPermissionDenied
	}
	if data == nil {
		return "", ErrInvalidData
	}
	return s.repo.Create(ctx, &profiles.Record{Collection: collection, OwnerID: uid, Data: data})
}

// Set overwrites the whole record at (collection, id).
func (s *Service) Set(ctx context.Context, uid, collection, id string, data map[string]interface{}) error {
	if err := s.checkKey(uid, collection, id); err != nil {
		return err
	}
	if data == nil {
		return ErrInvalidData
	}
	cur, err := s.repo.Get(ctx, collection, id)
	if err != nil {
		return err
	}
	if cur != nil && cur.OwnerID != uid {
		return ErrPermissionDenied
	}
	return s.repo.Put(ctx, &profiles.Record{Collection: collection, ID: id, OwnerID: uid, Data: data})
}
