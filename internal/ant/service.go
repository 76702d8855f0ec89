package ant

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"antfarm/internal/domain"
	"antfarm/internal/logging"
	"antfarm/internal/repository"
)

// ErrForbidden is returned when a caller touches an ant they do not own.
var ErrForbidden = stderrors.New("forbidden")

// Service owns ant lifecycle operations and keeps the scheduler consistent
// with persisted state: enable/disable, assign/unassign, and delete all
// reconcile the ant's timer.
type Service struct {
	store     *repository.Store
	scheduler *Scheduler
	orch      *Orchestrator
	logger    logging.Logger
}

func NewService(store *repository.Store, scheduler *Scheduler, orch *Orchestrator, logger logging.Logger) *Service {
	return &Service{
		store:     store,
		scheduler: scheduler,
		orch:      orch,
		logger:    logging.OrNop(logger),
	}
}

// CreateAnt persists a new ant. It is scheduled once it is enabled and has at
// least one room assignment.
func (s *Service) CreateAnt(ctx context.Context, ownerID, name string, model domain.ModelID, personalityPrompt string, intervalSeconds int, enabled, replyEvenIfNoNew bool) (domain.Ant, error) {
	a, err := domain.NewAnt(ownerID, name, model, personalityPrompt, intervalSeconds, enabled, replyEvenIfNoNew)
	if err != nil {
		return domain.Ant{}, err
	}
	if err := s.store.Ants.Create(ctx, a); err != nil {
		return domain.Ant{}, fmt.Errorf("create ant: %w", err)
	}
	if a.Enabled {
		s.ensureScheduledIfAssigned(ctx, a)
	}
	return a, nil
}

// UpdateAnt applies a partial update and reconciles the schedule.
func (s *Service) UpdateAnt(ctx context.Context, ownerID, antID string, update domain.AntUpdate) (domain.Ant, error) {
	a, err := s.requireOwnedAnt(ctx, ownerID, antID)
	if err != nil {
		return domain.Ant{}, err
	}

	updated, err := a.WithUpdate(update)
	if err != nil {
		return domain.Ant{}, err
	}
	if err := s.store.Ants.Update(ctx, updated); err != nil {
		return domain.Ant{}, fmt.Errorf("update ant: %w", err)
	}

	if updated.Enabled {
		s.ensureScheduledIfAssigned(ctx, updated)
	} else {
		s.scheduler.Cancel(updated.ID)
	}
	return updated, nil
}

// DeleteAnt cancels the schedule, removes every assignment, and deletes the
// ant. Run records stay for audit.
func (s *Service) DeleteAnt(ctx context.Context, ownerID, antID string) error {
	if _, err := s.requireOwnedAnt(ctx, ownerID, antID); err != nil {
		return err
	}

	s.scheduler.Cancel(antID)

	assignments, err := s.store.Assignments.ListByAnt(ctx, antID)
	if err != nil {
		s.logger.Warn("failed to list assignments for antId=%s (continuing): %v", antID, err)
	}
	for _, a := range assignments {
		if err := s.store.Assignments.Unassign(ctx, antID, a.RoomID); err != nil {
			s.logger.Warn("failed to unassign antId=%s roomId=%s (continuing): %v", antID, a.RoomID, err)
		}
	}

	return s.store.Ants.Delete(ctx, antID)
}

// AssignToRoom links the ant to a room. Idempotent; the room must exist.
func (s *Service) AssignToRoom(ctx context.Context, ownerID, antID, roomID string) error {
	a, err := s.requireOwnedAnt(ctx, ownerID, antID)
	if err != nil {
		return err
	}
	if strings.TrimSpace(roomID) == "" {
		return fmt.Errorf("roomID required")
	}
	if _, err := s.store.Rooms.FindByID(ctx, roomID); err != nil {
		return fmt.Errorf("room %s: %w", roomID, err)
	}

	if _, err := s.store.Assignments.Find(ctx, antID, roomID); err == nil {
		return nil
	}

	assignment, err := domain.NewAssignment(antID, roomID)
	if err != nil {
		return err
	}
	if err := s.store.Assignments.Assign(ctx, assignment); err != nil {
		return fmt.Errorf("assign: %w", err)
	}

	if a.Enabled {
		s.ensureScheduledIfAssigned(ctx, a)
	}
	return nil
}

// UnassignFromRoom removes the link. Removing the last assignment cancels the
// schedule.
func (s *Service) UnassignFromRoom(ctx context.Context, ownerID, antID, roomID string) error {
	if _, err := s.requireOwnedAnt(ctx, ownerID, antID); err != nil {
		return err
	}
	if err := s.store.Assignments.Unassign(ctx, antID, roomID); err != nil {
		return fmt.Errorf("unassign: %w", err)
	}

	remaining, err := s.store.Assignments.ListByAnt(ctx, antID)
	if err == nil && len(remaining) == 0 {
		s.scheduler.Cancel(antID)
	}
	return nil
}

// ListRuns returns the ant's newest runs, up to limit (default 50).
func (s *Service) ListRuns(ctx context.Context, ownerID, antID string, limit int) ([]domain.AntRun, error) {
	if _, err := s.requireOwnedAnt(ctx, ownerID, antID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	return s.store.Runs.ListByAnt(ctx, antID, limit)
}

// ClearRuns deletes the ant's run history.
func (s *Service) ClearRuns(ctx context.Context, ownerID, antID string) error {
	if _, err := s.requireOwnedAnt(ctx, ownerID, antID); err != nil {
		return err
	}
	return s.store.Runs.DeleteByAnt(ctx, antID)
}

// RunNow executes one tick synchronously, with the same semantics as a
// scheduled firing. No-op when the ant has no assignments.
func (s *Service) RunNow(ctx context.Context, ownerID, antID string) error {
	if _, err := s.requireOwnedAnt(ctx, ownerID, antID); err != nil {
		return err
	}
	assignments, err := s.store.Assignments.ListByAnt(ctx, antID)
	if err != nil {
		return err
	}
	if len(assignments) == 0 {
		return nil
	}
	s.orch.RunTick(ctx, antID)
	return nil
}

// WarmStart reschedules every enabled ant that has at least one assignment.
// Called once at boot; the single-instance caveat of the scheduler applies.
func (s *Service) WarmStart(ctx context.Context) (int, error) {
	ants, err := s.store.Ants.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("warm start: %w", err)
	}

	scheduled := 0
	for _, a := range ants {
		if !a.Enabled {
			continue
		}
		assignments, err := s.store.Assignments.ListByAnt(ctx, a.ID)
		if err != nil || len(assignments) == 0 {
			continue
		}
		s.schedule(a)
		scheduled++
	}

	s.logger.Info("warm-start scheduled ants=%d (scanned=%d)", scheduled, len(ants))
	return scheduled, nil
}

// ensureScheduledIfAssigned installs the timer only when the ant has at
// least one room assignment. An enabled but unassigned ant stays unscheduled.
func (s *Service) ensureScheduledIfAssigned(ctx context.Context, a domain.Ant) {
	assignments, err := s.store.Assignments.ListByAnt(ctx, a.ID)
	if err != nil {
		s.logger.Warn("failed to list assignments for antId=%s (not scheduling): %v", a.ID, err)
		return
	}
	if len(assignments) == 0 {
		return
	}
	s.schedule(a)
}

func (s *Service) schedule(a domain.Ant) {
	antID := a.ID
	s.scheduler.ScheduleOrReschedule(a, func() {
		s.orch.RunTick(context.Background(), antID)
	})
}

func (s *Service) requireOwnedAnt(ctx context.Context, ownerID, antID string) (domain.Ant, error) {
	a, err := s.store.Ants.FindByID(ctx, antID)
	if err != nil {
		return domain.Ant{}, err
	}
	if a.OwnerID != ownerID {
		return domain.Ant{}, ErrForbidden
	}
	return a, nil
}
