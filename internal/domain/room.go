package domain

import "time"

// Room is a shared chat space. Scenario is free-form setting text that feeds
// prompt construction as guidance.
type Room struct {
	ID        string
	Name      string
	Scenario  string
	CreatedAt time.Time
}

// RoomRole is a named, room-scoped role an ant can be assigned (e.g. a
// moderator persona). The prompt is injected into the ant's context when the
// role is assigned.
type RoomRole struct {
	RoomID string
	RoleID string
	Name   string
	Prompt string
}
