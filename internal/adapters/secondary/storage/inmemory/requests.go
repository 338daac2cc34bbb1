package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	ports "github.com/Aagam-Bothara/astranum-sub001/internal/ports/repository"
	"github.com/google/uuid"
)

// Requests журнал вопросов и история статусов в памяти
type Requests struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]domain.Request
	statuses map[uuid.UUID][]domain.Status
}

func NewRequests() *Requests {
	return &Requests{
		requests: make(map[uuid.UUID]domain.Request),
		statuses: make(map[uuid.UUID][]domain.Status),
	}
}

var _ ports.IRequestRepo = (*Requests)(nil)

func (r *Requests) Create(_ context.Context, request *domain.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[request.ID] = *request
	return nil
}

func (r *Requests) UpdateResult(_ context.Context, request *domain.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.requests[request.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.SnapshotVersion = request.SnapshotVersion
	stored.ResponseText = request.ResponseText
	stored.Passed = request.Passed
	stored.WasRegenerated = request.WasRegenerated
	stored.State = request.State
	stored.Mode = request.Mode
	stored.UpdatedAt = request.UpdatedAt
	r.requests[request.ID] = stored
	return nil
}

func (r *Requests) GetByID(_ context.Context, id uuid.UUID) (*domain.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	request, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &request, nil
}

func (r *Requests) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]*domain.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Request
	for _, request := range r.requests {
		if request.UserID == userID {
			cp := request
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Statuses репозиторий статусов поверх того же хранилища
func (r *Requests) Statuses() *Statuses {
	return &Statuses{r: r}
}

type Statuses struct {
	r *Requests
}

var _ ports.IStatusRepo = (*Statuses)(nil)

func (s *Statuses) Create(_ context.Context, status *domain.Status) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	s.r.statuses[status.ObjectID] = append(s.r.statuses[status.ObjectID], *status)
	return nil
}

func (s *Statuses) GetLatestByObjectID(_ context.Context, objectType domain.ObjectType, objectID uuid.UUID) (*domain.Status, error) {
	s.r.mu.RLock()
	defer s.r.mu.RUnlock()

	history := s.r.statuses[objectID]
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].ObjectType == objectType {
			st := history[i]
			return &st, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Statuses) GetByObjectID(_ context.Context, objectType domain.ObjectType, objectID uuid.UUID) ([]*domain.Status, error) {
	s.r.mu.RLock()
	defer s.r.mu.RUnlock()

	var out []*domain.Status
	for _, st := range s.r.statuses[objectID] {
		if st.ObjectType == objectType {
			cp := st
			out = append(out, &cp)
		}
	}
	return out, nil
}
