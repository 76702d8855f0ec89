// Package ant implements the scheduling and execution engine: per-agent
// timers, a bounded worker pool, the tick orchestrator, prompt construction,
// the model-runner registry, and per-tick metrics.
package ant

import "antfarm/internal/domain"

// ModelContext is the per-room context assembled for one model invocation.
// RecentMessages are newest first, matching the repository contract. It is
// built per tick and never persisted.
type ModelContext struct {
	RecentMessages []domain.Message
	RollingSummary string
	RoomScenario   string
	Personality    string
	RoleName       string
	RolePrompt     string
	ThoughtJSON    string
	ForceReply     bool
}
