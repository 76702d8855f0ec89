package repository

import (
	"context"
	"sort"
	"sync"

	"antfarm/internal/domain"
)

// NewMemoryStore returns a Store backed by in-process maps. It is the default
// for development and the fixture for tests.
func NewMemoryStore() *Store {
	return &Store{
		Ants:        &memoryAnts{ants: map[string]domain.Ant{}},
		Assignments: &memoryAssignments{assignments: map[assignmentKey]domain.AntRoomAssignment{}},
		Runs:        &memoryRuns{runs: map[string]domain.AntRun{}},
		Messages:    &memoryMessages{byRoom: map[string][]domain.Message{}},
		Rooms:       &memoryRooms{rooms: map[string]domain.Room{}},
		Roles:       &memoryRoles{roles: map[assignmentKey]domain.RoomRole{}},
	}
}

type assignmentKey struct {
	a, b string
}

type memoryAnts struct {
	mu   sync.RWMutex
	ants map[string]domain.Ant
}

func (m *memoryAnts) FindByID(_ context.Context, id string) (domain.Ant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ant, ok := m.ants[id]
	if !ok {
		return domain.Ant{}, ErrNotFound
	}
	return ant, nil
}

func (m *memoryAnts) ListByOwner(_ context.Context, ownerID string) ([]domain.Ant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Ant
	for _, ant := range m.ants {
		if ant.OwnerID == ownerID {
			out = append(out, ant)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryAnts) ListAll(_ context.Context) ([]domain.Ant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Ant, 0, len(m.ants))
	for _, ant := range m.ants {
		out = append(out, ant)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryAnts) Create(_ context.Context, ant domain.Ant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ants[ant.ID] = ant
	return nil
}

func (m *memoryAnts) Update(_ context.Context, ant domain.Ant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ants[ant.ID]; !ok {
		return ErrNotFound
	}
	m.ants[ant.ID] = ant
	return nil
}

func (m *memoryAnts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ants, id)
	return nil
}

type memoryAssignments struct {
	mu          sync.RWMutex
	assignments map[assignmentKey]domain.AntRoomAssignment
}

func (m *memoryAssignments) Find(_ context.Context, antID, roomID string) (domain.AntRoomAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assignments[assignmentKey{antID, roomID}]
	if !ok {
		return domain.AntRoomAssignment{}, ErrNotFound
	}
	return a, nil
}

func (m *memoryAssignments) ListByAnt(_ context.Context, antID string) ([]domain.AntRoomAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.AntRoomAssignment
	for _, a := range m.assignments {
		if a.AntID == antID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out, nil
}

func (m *memoryAssignments) ListByRoom(_ context.Context, roomID string) ([]domain.AntRoomAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.AntRoomAssignment
	for _, a := range m.assignments {
		if a.RoomID == roomID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AntID < out[j].AntID })
	return out, nil
}

func (m *memoryAssignments) Assign(_ context.Context, assignment domain.AntRoomAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[assignmentKey{assignment.AntID, assignment.RoomID}] = assignment
	return nil
}

func (m *memoryAssignments) Unassign(_ context.Context, antID, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.assignments, assignmentKey{antID, roomID})
	return nil
}

func (m *memoryAssignments) Update(_ context.Context, assignment domain.AntRoomAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := assignmentKey{assignment.AntID, assignment.RoomID}
	if _, ok := m.assignments[key]; !ok {
		return ErrNotFound
	}
	m.assignments[key] = assignment
	return nil
}

type memoryRuns struct {
	mu   sync.RWMutex
	runs map[string]domain.AntRun
}

func (m *memoryRuns) Create(_ context.Context, run domain.AntRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	return nil
}

func (m *memoryRuns) Update(_ context.Context, run domain.AntRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[run.ID]; !ok {
		return ErrNotFound
	}
	m.runs[run.ID] = run
	return nil
}

func (m *memoryRuns) ListByAnt(_ context.Context, antID string, limit int) ([]domain.AntRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.AntRun
	for _, r := range m.runs {
		if r.AntID == antID {
			out = append(out, r)
		}
	}
	// Newest first, like the run history view.
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryRuns) DeleteByAnt(_ context.Context, antID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.runs {
		if r.AntID == antID {
			delete(m.runs, id)
		}
	}
	return nil
}

type memoryMessages struct {
	mu     sync.RWMutex
	byRoom map[string][]domain.Message
}

func (m *memoryMessages) Create(_ context.Context, msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byRoom[msg.RoomID] = append(m.byRoom[msg.RoomID], msg)
	return nil
}

func (m *memoryMessages) ListByRoom(_ context.Context, roomID string, limit int) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.byRoom[roomID]
	out := make([]domain.Message, 0, len(msgs))
	// Stored oldest->newest; contract is newest first.
	for i := len(msgs) - 1; i >= 0; i-- {
		out = append(out, msgs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type memoryRooms struct {
	mu    sync.RWMutex
	rooms map[string]domain.Room
}

func (m *memoryRooms) FindByID(_ context.Context, id string) (domain.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	if !ok {
		return domain.Room{}, ErrNotFound
	}
	return room, nil
}

func (m *memoryRooms) Create(_ context.Context, room domain.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = room
	return nil
}

type memoryRoles struct {
	mu    sync.RWMutex
	roles map[assignmentKey]domain.RoomRole
}

func (m *memoryRoles) Find(_ context.Context, roomID, roleID string) (domain.RoomRole, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	role, ok := m.roles[assignmentKey{roomID, roleID}]
	if !ok {
		return domain.RoomRole{}, ErrNotFound
	}
	return role, nil
}

func (m *memoryRoles) Create(_ context.Context, role domain.RoomRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[assignmentKey{role.RoomID, role.RoleID}] = role
	return nil
}
