package ant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"antfarm/internal/domain"
)

// MockRunner produces deterministic output for plumbing validation and is the
// registry fallback for unknown model ids.
type MockRunner struct{}

func NewMockRunner() *MockRunner { return &MockRunner{} }

func (*MockRunner) Model() domain.ModelID { return domain.ModelMock }

func (*MockRunner) GenerateMessage(_ context.Context, a domain.Ant, _ string, _ *ModelContext) (string, error) {
	return fmt.Sprintf("[%s/%s] (mock) I'm alive.", a.Name, a.Model), nil
}

func (*MockRunner) GenerateSummary(_ context.Context, _ domain.Ant, _ string, mc *ModelContext, _ string) (string, error) {
	n := 0
	if mc != nil {
		n = len(mc.RecentMessages)
	}
	return fmt.Sprintf("(mock summary) %d messages in window.", n), nil
}

func (*MockRunner) GenerateThought(_ context.Context, _ domain.Ant, _ string, _ *ModelContext) (string, error) {
	t := BicameralThought{
		Version:         thoughtVersion,
		CreatedAt:       time.Now().UTC(),
		StalenessScore:  50,
		ConfidenceScore: 50,
		MyReplyIntent:   "keep the conversation moving",
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
