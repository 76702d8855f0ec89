// Package repository defines the narrow persistence contracts the engine
// depends on, plus an in-memory and a SQLite implementation. The engine never
// sees anything beyond these interfaces.
package repository

import (
	"context"
	"errors"

	"antfarm/internal/domain"
)

// ErrNotFound is returned when a looked-up entity does not exist.
var ErrNotFound = errors.New("not found")

// AntRepository persists ants.
type AntRepository interface {
	FindByID(ctx context.Context, id string) (domain.Ant, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Ant, error)
	ListAll(ctx context.Context) ([]domain.Ant, error)
	Create(ctx context.Context, ant domain.Ant) error
	Update(ctx context.Context, ant domain.Ant) error
	Delete(ctx context.Context, id string) error
}

// AssignmentRepository persists ant-room assignments.
type AssignmentRepository interface {
	Find(ctx context.Context, antID, roomID string) (domain.AntRoomAssignment, error)
	ListByAnt(ctx context.Context, antID string) ([]domain.AntRoomAssignment, error)
	ListByRoom(ctx context.Context, roomID string) ([]domain.AntRoomAssignment, error)
	Assign(ctx context.Context, assignment domain.AntRoomAssignment) error
	Unassign(ctx context.Context, antID, roomID string) error
	Update(ctx context.Context, assignment domain.AntRoomAssignment) error
}

// RunRepository persists run audit records.
type RunRepository interface {
	Create(ctx context.Context, run domain.AntRun) error
	Update(ctx context.Context, run domain.AntRun) error
	ListByAnt(ctx context.Context, antID string, limit int) ([]domain.AntRun, error)
	DeleteByAnt(ctx context.Context, antID string) error
}

// MessageRepository persists room messages. ListByRoom returns newest first.
type MessageRepository interface {
	Create(ctx context.Context, msg domain.Message) error
	ListByRoom(ctx context.Context, roomID string, limit int) ([]domain.Message, error)
}

// RoomRepository resolves rooms (scenario text) for prompt construction.
type RoomRepository interface {
	FindByID(ctx context.Context, id string) (domain.Room, error)
	Create(ctx context.Context, room domain.Room) error
}

// RoleRepository resolves room-scoped roles.
type RoleRepository interface {
	Find(ctx context.Context, roomID, roleID string) (domain.RoomRole, error)
	Create(ctx context.Context, role domain.RoomRole) error
}

// Store bundles every repository behind one handle.
type Store struct {
	Ants        AntRepository
	Assignments AssignmentRepository
	Runs        RunRepository
	Messages    MessageRepository
	Rooms       RoomRepository
	Roles       RoleRepository
}
