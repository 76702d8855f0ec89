package domain

import (
	"fmt"
	"strings"
	"time"
)

// AntRoomAssignment is the many-to-many join between an ant and a room. All
// per-room state lives here rather than on the Ant: the last message the ant
// has seen, its rolling summary of the room, and its internal reflective
// state. RollingSummary and ThoughtJSON are never exposed outside the engine.
type AntRoomAssignment struct {
	AntID             string
	RoomID            string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	LastSeenMessageID string
	LastRunAt         time.Time
	RoleID            string
	RoleName          string
	RollingSummary    string
	SummaryMsgCounter int
	ThoughtJSON       string
}

// NewAssignment creates an assignment with empty per-room state.
func NewAssignment(antID, roomID string) (AntRoomAssignment, error) {
	if strings.TrimSpace(antID) == "" {
		return AntRoomAssignment{}, fmt.Errorf("antID required")
	}
	if strings.TrimSpace(roomID) == "" {
		return AntRoomAssignment{}, fmt.Errorf("roomID required")
	}
	now := time.Now().UTC()
	return AntRoomAssignment{
		AntID:     antID,
		RoomID:    roomID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// WithLastSeen records the newest observed message and run time.
func (a AntRoomAssignment) WithLastSeen(lastSeenMessageID string, lastRunAt time.Time) AntRoomAssignment {
	a.LastSeenMessageID = lastSeenMessageID
	a.LastRunAt = lastRunAt
	a.UpdatedAt = time.Now().UTC()
	return a
}

// WithSummary replaces the rolling summary and sets the counter. The counter
// is clamped at zero: it counts observed-but-unsummarized messages and can
// never go negative.
func (a AntRoomAssignment) WithSummary(summary string, counter int) AntRoomAssignment {
	if counter < 0 {
		counter = 0
	}
	a.RollingSummary = summary
	a.SummaryMsgCounter = counter
	a.UpdatedAt = time.Now().UTC()
	return a
}

// IncrementSummaryCounter adds n newly observed messages.
func (a AntRoomAssignment) IncrementSummaryCounter(n int) AntRoomAssignment {
	if n <= 0 {
		return a
	}
	a.SummaryMsgCounter += n
	a.UpdatedAt = time.Now().UTC()
	return a
}

// WithThought replaces the persisted reflective-state blob. The value is
// opaque here; parsing and validation happen at read time.
func (a AntRoomAssignment) WithThought(thoughtJSON string) AntRoomAssignment {
	a.ThoughtJSON = thoughtJSON
	a.UpdatedAt = time.Now().UTC()
	return a
}

// WithRole assigns or clears the room role.
func (a AntRoomAssignment) WithRole(roleID, roleName string) AntRoomAssignment {
	a.RoleID = roleID
	a.RoleName = roleName
	a.UpdatedAt = time.Now().UTC()
	return a
}
