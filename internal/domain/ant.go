package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MinIntervalSeconds is the floor on how often an ant may tick.
const MinIntervalSeconds = 5

// Ant is a user-owned autonomous agent that periodically posts into its
// assigned rooms.
type Ant struct {
	ID                string
	OwnerID           string
	Name              string
	Model             ModelID
	PersonalityPrompt string
	IntervalSeconds   int
	Enabled           bool
	ReplyEvenIfNoNew  bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewAnt validates and constructs an Ant.
func NewAnt(ownerID, name string, model ModelID, personalityPrompt string, intervalSeconds int, enabled, replyEvenIfNoNew bool) (Ant, error) {
	if strings.TrimSpace(ownerID) == "" {
		return Ant{}, fmt.Errorf("ownerID required")
	}
	if strings.TrimSpace(name) == "" {
		return Ant{}, fmt.Errorf("name required")
	}
	if intervalSeconds < MinIntervalSeconds {
		return Ant{}, fmt.Errorf("intervalSeconds must be >= %d", MinIntervalSeconds)
	}

	now := time.Now().UTC()
	return Ant{
		ID:                uuid.NewString(),
		OwnerID:           ownerID,
		Name:              strings.TrimSpace(name),
		Model:             model.OrMock(),
		PersonalityPrompt: personalityPrompt,
		IntervalSeconds:   intervalSeconds,
		Enabled:           enabled,
		ReplyEvenIfNoNew:  replyEvenIfNoNew,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// AntUpdate carries optional field changes; nil means "keep current value".
type AntUpdate struct {
	Name              *string
	Model             *ModelID
	PersonalityPrompt *string
	IntervalSeconds   *int
	Enabled           *bool
	ReplyEvenIfNoNew  *bool
}

// WithUpdate applies an update and bumps UpdatedAt.
func (a Ant) WithUpdate(u AntUpdate) (Ant, error) {
	if u.IntervalSeconds != nil && *u.IntervalSeconds < MinIntervalSeconds {
		return Ant{}, fmt.Errorf("intervalSeconds must be >= %d", MinIntervalSeconds)
	}

	if u.Name != nil && strings.TrimSpace(*u.Name) != "" {
		a.Name = strings.TrimSpace(*u.Name)
	}
	if u.Model != nil {
		a.Model = u.Model.OrMock()
	}
	if u.PersonalityPrompt != nil {
		a.PersonalityPrompt = *u.PersonalityPrompt
	}
	if u.IntervalSeconds != nil {
		a.IntervalSeconds = *u.IntervalSeconds
	}
	if u.Enabled != nil {
		a.Enabled = *u.Enabled
	}
	if u.ReplyEvenIfNoNew != nil {
		a.ReplyEvenIfNoNew = *u.ReplyEvenIfNoNew
	}
	a.UpdatedAt = time.Now().UTC()
	return a, nil
}

// Interval returns the effective tick period, never below the floor.
func (a Ant) Interval() time.Duration {
	secs := a.IntervalSeconds
	if secs < MinIntervalSeconds {
		secs = MinIntervalSeconds
	}
	return time.Duration(secs) * time.Second
}
