package guidance

import (
	"fmt"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/google/uuid"
)

// допустимые переходы; в Failed можно перейти из любого нетерминального состояния
var transitions = map[domain.PipelineState][]domain.PipelineState{
	domain.StateAdmitting:  {domain.StateFetching, domain.StateDenied},
	domain.StateFetching:   {domain.StateGenerating},
	domain.StateGenerating: {domain.StateValidating},
	domain.StateValidating: {domain.StateCommitting, domain.StateRetrying},
	domain.StateRetrying:   {domain.StateValidating, domain.StateCommitting},
	domain.StateCommitting: {domain.StateDone},
}

// run состояние одного вопроса в конвейере
type run struct {
	id       uuid.UUID
	userID   uuid.UUID
	request  domain.GuidanceRequest
	profile  *domain.UserProfile
	plan     domain.Plan
	mode     domain.GuidanceMode
	language domain.Language

	state       domain.PipelineState
	reservation *domain.Reservation
	snapshot    *domain.ChartSnapshot
	candidate   *domain.CandidateAnswer
	result      domain.ValidationResult
	degraded    bool
}

func (r *run) advance(next domain.PipelineState) error {
	if r.state.Terminal() {
		return fmt.Errorf("%w: request %s is already %s", domain.ErrInternalInconsistency, r.id, r.state)
	}
	if next == domain.StateFailed {
		r.state = next
		return nil
	}
	for _, allowed := range transitions[r.state] {
		if allowed == next {
			r.state = next
			return nil
		}
	}
	return fmt.Errorf("%w: transition %s -> %s", domain.ErrInternalInconsistency, r.state, next)
}
