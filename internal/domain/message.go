package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuthorType distinguishes who wrote a message.
type AuthorType string

const (
	AuthorUser   AuthorType = "USER"
	AuthorAnt    AuthorType = "ANT"
	AuthorSystem AuthorType = "SYSTEM"
)

// Message is a single chat message in a room.
type Message struct {
	ID         string
	RoomID     string
	AuthorType AuthorType
	AuthorID   string
	AuthorName string
	Content    string
	CreatedAt  time.Time
}

// NewAntMessage creates a message authored by an ant.
func NewAntMessage(roomID, antID, antName, content string) Message {
	return Message{
		ID:         uuid.NewString(),
		RoomID:     roomID,
		AuthorType: AuthorAnt,
		AuthorID:   antID,
		AuthorName: antName,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
}

// NewUserMessage creates a message authored by a human participant.
func NewUserMessage(roomID, userID, userName, content string) Message {
	return Message{
		ID:         uuid.NewString(),
		RoomID:     roomID,
		AuthorType: AuthorUser,
		AuthorID:   userID,
		AuthorName: userName,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
}
