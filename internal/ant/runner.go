package ant

import (
	"context"

	"antfarm/internal/domain"
)

// Runner is the model-specific execution strategy for an ant. All three
// operations must return non-blank text or an error.
type Runner interface {
	Model() domain.ModelID

	// GenerateMessage computes the next message to post in the room.
	GenerateMessage(ctx context.Context, a domain.Ant, roomID string, mc *ModelContext) (string, error)

	// GenerateSummary produces an updated rolling summary from the existing
	// summary plus the latest window.
	GenerateSummary(ctx context.Context, a domain.Ant, roomID string, mc *ModelContext, existingSummary string) (string, error)

	// GenerateThought produces the reflective-state JSON blob.
	GenerateThought(ctx context.Context, a domain.Ant, roomID string, mc *ModelContext) (string, error)
}

// Registry dispatches model ids to runners. Unknown or unset ids fall back to
// the mock runner rather than failing the tick.
type Registry struct {
	runners  map[domain.ModelID]Runner
	fallback Runner
}

// NewRegistry builds a registry from the given runners. The mock runner is
// always present and serves as the fallback.
func NewRegistry(runners ...Runner) *Registry {
	mock := NewMockRunner()
	r := &Registry{
		runners:  map[domain.ModelID]Runner{mock.Model(): mock},
		fallback: mock,
	}
	for _, runner := range runners {
		if runner != nil {
			r.runners[runner.Model()] = runner
		}
	}
	return r
}

// Runner returns the runner for model, or the fallback.
func (r *Registry) Runner(model domain.ModelID) Runner {
	if runner, ok := r.runners[model.OrMock()]; ok {
		return runner
	}
	return r.fallback
}

// Models lists the registered model ids.
func (r *Registry) Models() []domain.ModelID {
	out := make([]domain.ModelID, 0, len(r.runners))
	for id := range r.runners {
		out = append(out, id)
	}
	return out
}
