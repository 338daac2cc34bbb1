package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	ports "github.com/Aagam-Bothara/astranum-sub001/internal/ports/repository"
	"github.com/google/uuid"
)

type userLedger struct {
	mu           sync.Mutex
	windows      map[domain.WindowKey]*domain.WindowCounter
	reservations map[uuid.UUID]*domain.Reservation
}

// Ledger реализация ports.ILedgerRepo в памяти. Решение о допуске принимается
// под мьютексом пользователя; разные пользователи друг друга не блокируют.
type Ledger struct {
	mu    sync.Mutex // только для карт users и owners
	users map[uuid.UUID]*userLedger
	// владелец резервации, чтобы Commit/Release находили нужного пользователя
	owners map[uuid.UUID]uuid.UUID
}

func NewLedger() *Ledger {
	return &Ledger{
		users:  make(map[uuid.UUID]*userLedger),
		owners: make(map[uuid.UUID]uuid.UUID),
	}
}

var _ ports.ILedgerRepo = (*Ledger)(nil)

func (l *Ledger) user(userID uuid.UUID) *userLedger {
	l.mu.Lock()
	defer l.mu.Unlock()

	u, ok := l.users[userID]
	if !ok {
		u = &userLedger{
			windows:      make(map[domain.WindowKey]*domain.WindowCounter),
			reservations: make(map[uuid.UUID]*domain.Reservation),
		}
		l.users[userID] = u
	}
	return u
}

func (u *userLedger) counter(userID uuid.UUID, key domain.WindowKey, now time.Time) *domain.WindowCounter {
	c, ok := u.windows[key]
	if !ok {
		c = &domain.WindowCounter{UserID: userID, Window: key.Window, PeriodKey: key.PeriodKey, UpdatedAt: now}
		u.windows[key] = c
	}
	return c
}

func (u *userLedger) snapshot(userID uuid.UUID, keys []domain.WindowKey) map[domain.Window]domain.WindowCounter {
	out := make(map[domain.Window]domain.WindowCounter, len(keys))
	for _, key := range keys {
		if c, ok := u.windows[key]; ok {
			out[key.Window] = *c
		} else {
			out[key.Window] = domain.WindowCounter{UserID: userID, Window: key.Window, PeriodKey: key.PeriodKey}
		}
	}
	return out
}

func (l *Ledger) Reserve(_ context.Context, res *domain.Reservation, decide ports.AdmissionFunc) (map[domain.Window]domain.WindowCounter, error) {
	u := l.user(res.UserID)
	u.mu.Lock()
	defer u.mu.Unlock()

	keys := sortKeys(res.Windows)
	before := u.snapshot(res.UserID, keys)
	if err := decide(before); err != nil {
		return before, err
	}

	for _, key := range keys {
		c := u.counter(res.UserID, key, res.CreatedAt)
		c.Reserved++
		c.UpdatedAt = res.CreatedAt
	}

	stored := *res
	stored.Windows = keys
	stored.Status = domain.ReservationPending
	u.reservations[res.ID] = &stored

	l.mu.Lock()
	l.owners[res.ID] = res.UserID
	l.mu.Unlock()

	res.Windows = keys
	res.Status = domain.ReservationPending
	return u.snapshot(res.UserID, keys), nil
}

func (l *Ledger) Commit(_ context.Context, reservationID uuid.UUID, at time.Time) error {
	return l.resolve(reservationID, domain.ReservationCommitted, at)
}

func (l *Ledger) Release(_ context.Context, reservationID uuid.UUID, at time.Time) error {
	return l.resolve(reservationID, domain.ReservationReleased, at)
}

func (l *Ledger) resolve(reservationID uuid.UUID, status domain.ReservationStatus, at time.Time) error {
	l.mu.Lock()
	userID, ok := l.owners[reservationID]
	l.mu.Unlock()
	if !ok {
		return domain.ErrReservationResolved
	}

	u := l.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	res, ok := u.reservations[reservationID]
	if !ok || res.Status != domain.ReservationPending {
		return domain.ErrReservationResolved
	}

	for _, key := range res.Windows {
		c := u.counter(userID, key, at)
		if c.Reserved > 0 {
			c.Reserved--
		}
		if status == domain.ReservationCommitted {
			c.Used++
		}
		c.UpdatedAt = at
	}

	res.Status = status
	resolvedAt := at
	res.ResolvedAt = &resolvedAt
	return nil
}

func (l *Ledger) Counters(_ context.Context, userID uuid.UUID, keys []domain.WindowKey) (map[domain.Window]domain.WindowCounter, error) {
	u := l.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.snapshot(userID, keys), nil
}

func (l *Ledger) GetReservation(_ context.Context, reservationID uuid.UUID) (*domain.Reservation, error) {
	l.mu.Lock()
	userID, ok := l.owners[reservationID]
	l.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}

	u := l.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	res, ok := u.reservations[reservationID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (l *Ledger) allUsers() []*userLedger {
	l.mu.Lock()
	defer l.mu.Unlock()

	users := make([]*userLedger, 0, len(l.users))
	for _, u := range l.users {
		users = append(users, u)
	}
	return users
}

func (l *Ledger) ListExpired(_ context.Context, now time.Time, limit int) ([]*domain.Reservation, error) {
	var expired []*domain.Reservation
	for _, u := range l.allUsers() {
		u.mu.Lock()
		for _, res := range u.reservations {
			if res.Status == domain.ReservationPending && res.ExpiresAt.Before(now) {
				cp := *res
				expired = append(expired, &cp)
			}
		}
		u.mu.Unlock()
	}

	sort.Slice(expired, func(i, j int) bool { return expired[i].ExpiresAt.Before(expired[j].ExpiresAt) })
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

func (l *Ledger) PruneReservations(_ context.Context, before time.Time) (int64, error) {
	var deleted []uuid.UUID
	for _, u := range l.allUsers() {
		u.mu.Lock()
		for id, res := range u.reservations {
			if res.Status != domain.ReservationPending && res.ResolvedAt != nil && res.ResolvedAt.Before(before) {
				delete(u.reservations, id)
				deleted = append(deleted, id)
			}
		}
		u.mu.Unlock()
	}

	l.mu.Lock()
	for _, id := range deleted {
		delete(l.owners, id)
	}
	l.mu.Unlock()
	return int64(len(deleted)), nil
}

func (l *Ledger) PruneWindows(_ context.Context, window domain.Window, before time.Time) (int64, error) {
	var deleted int64
	for _, u := range l.allUsers() {
		u.mu.Lock()
		for key, c := range u.windows {
			if key.Window == window && c.Reserved == 0 && c.UpdatedAt.Before(before) {
				delete(u.windows, key)
				deleted++
			}
		}
		u.mu.Unlock()
	}
	return deleted, nil
}

func sortKeys(keys []domain.WindowKey) []domain.WindowKey {
	rank := make(map[domain.Window]int, len(domain.WindowOrder))
	for i, w := range domain.WindowOrder {
		rank[w] = i
	}
	out := make([]domain.WindowKey, len(keys))
	copy(out, keys)
	sort.SliceStable(out, func(i, j int) bool { return rank[out[i].Window] < rank[out[j].Window] })
	return out
}
