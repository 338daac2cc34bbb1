package inmemory

import (
	"context"
	"sync"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	ports "github.com/Aagam-Bothara/astranum-sub001/internal/ports/repository"
	"github.com/google/uuid"
)

// Charts версии карт в памяти; срез версий пользователя только растёт
type Charts struct {
	mu       sync.RWMutex
	versions map[uuid.UUID][]*domain.ChartSnapshot
	inserts  int
}

func NewCharts() *Charts {
	return &Charts{versions: make(map[uuid.UUID][]*domain.ChartSnapshot)}
}

var _ ports.IChartRepo = (*Charts)(nil)

func (c *Charts) GetLatest(_ context.Context, userID uuid.UUID) (*domain.ChartSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	versions := c.versions[userID]
	if len(versions) == 0 {
		return nil, domain.ErrNotFound
	}
	cp := *versions[len(versions)-1]
	return &cp, nil
}

func (c *Charts) GetVersion(_ context.Context, userID uuid.UUID, version int) (*domain.ChartSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, s := range c.versions[userID] {
		if s.Version == version {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (c *Charts) ListVersions(_ context.Context, userID uuid.UUID) ([]*domain.ChartSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*domain.ChartSnapshot, 0, len(c.versions[userID]))
	for _, s := range c.versions[userID] {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (c *Charts) AppendVersion(_ context.Context, snapshot *domain.ChartSnapshot) (*domain.ChartSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	versions := c.versions[snapshot.UserID]
	if n := len(versions); n > 0 && versions[n-1].InputHash == snapshot.InputHash {
		cp := *versions[n-1]
		return &cp, nil
	}

	next := *snapshot
	next.Version = len(versions) + 1
	next.Transit = nil
	if next.ID == uuid.Nil {
		next.ID = uuid.New()
	}
	c.versions[snapshot.UserID] = append(versions, &next)
	c.inserts++

	cp := next
	return &cp, nil
}

// Inserts сколько версий реально вставлено
func (c *Charts) Inserts() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inserts
}
