package ant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"antfarm/internal/broadcast"
	"antfarm/internal/domain"
	"antfarm/internal/errors"
	"antfarm/internal/logging"
	"antfarm/internal/repository"
)

// Rolling-summary settings.
const (
	DefaultSummaryWindow = 30
	summaryMaxChars      = 8000
)

// Orchestrator executes one agent tick: change detection, skip policy, model
// invocation, assignment-state updates, and run-record lifecycle.
type Orchestrator struct {
	store         *repository.Store
	registry      *Registry
	scheduler     *Scheduler
	broadcaster   broadcast.Broadcaster
	logger        logging.Logger
	summaryWindow int
}

func NewOrchestrator(store *repository.Store, registry *Registry, scheduler *Scheduler, broadcaster broadcast.Broadcaster, summaryWindow int, logger logging.Logger) *Orchestrator {
	if summaryWindow < 1 {
		summaryWindow = DefaultSummaryWindow
	}
	if broadcaster == nil {
		broadcaster = broadcast.NopBroadcaster{}
	}
	return &Orchestrator{
		store:         store,
		registry:      registry,
		scheduler:     scheduler,
		broadcaster:   broadcaster,
		logger:        logging.OrNop(logger),
		summaryWindow: summaryWindow,
	}
}

// RunTick processes every room assignment of antID, sequentially so
// LastSeenMessageID updates stay ordered. A missing or disabled agent, or an
// empty assignment list, cancels the schedule; nothing else does.
func (o *Orchestrator) RunTick(ctx context.Context, antID string) {
	ctx, collector := WithTick(ctx, antID)
	o.logger.Info("ant tick started antId=%s", antID)
	defer func() {
		s := collector.Summary()
		o.logger.Info("ant tick ended antId=%s modelCalls=%d ok=%d failed=%d estUsd=%.6f",
			antID, s.Requests, s.Successes, s.Failures, s.EstimatedUSD)
	}()

	a, err := o.store.Ants.FindByID(ctx, antID)
	if err != nil || !a.Enabled {
		if err != nil && err != repository.ErrNotFound {
			o.logger.Error("load ant failed antId=%s: %v", antID, err)
			return
		}
		o.scheduler.Cancel(antID)
		return
	}

	assignments, err := o.store.Assignments.ListByAnt(ctx, antID)
	if err != nil {
		o.logger.Error("list assignments failed antId=%s: %v", antID, err)
		return
	}
	if len(assignments) == 0 {
		o.scheduler.Cancel(antID)
		return
	}

	for _, assignment := range assignments {
		o.runInRoom(ctx, a, assignment)
	}
}

func (o *Orchestrator) runInRoom(ctx context.Context, a domain.Ant, assignment domain.AntRoomAssignment) {
	roomID := assignment.RoomID
	o.logger.Debug("running ant in room antId=%s roomId=%s", a.ID, roomID)

	run := domain.StartRun(a.ID, a.OwnerID, roomID)
	if err := o.store.Runs.Create(ctx, run); err != nil {
		o.logger.Error("create run failed antId=%s roomId=%s: %v", a.ID, roomID, err)
		return
	}

	finish := func(r domain.AntRun) {
		runsTotal.WithLabelValues(string(r.Status)).Inc()
		if err := o.store.Runs.Update(ctx, r); err != nil {
			o.logger.Error("update run failed runId=%s: %v", r.ID, err)
		}
	}

	window, err := o.store.Messages.ListByRoom(ctx, roomID, o.summaryWindow)
	if err != nil {
		o.logger.Error("load message window failed antId=%s roomId=%s: %v", a.ID, roomID, err)
		finish(run.Failed("", errors.Summary(err)))
		return
	}

	scenario := ""
	if room, err := o.store.Rooms.FindByID(ctx, roomID); err == nil {
		scenario = room.Scenario
	}

	// Role loading is best-effort: a broken role must not block the tick.
	roleName := assignment.RoleName
	rolePrompt := ""
	if assignment.RoleID != "" {
		role, err := o.store.Roles.Find(ctx, roomID, assignment.RoleID)
		if err == nil {
			if role.Name != "" {
				roleName = role.Name
			}
			rolePrompt = role.Prompt
		} else {
			o.logger.Warn("failed to load role for ant prompt antId=%s roomId=%s roleId=%s (continuing): %v",
				a.ID, roomID, assignment.RoleID, err)
		}
	}

	latestMessageID := ""
	if len(window) > 0 {
		latestMessageID = window[0].ID
	}
	roomChanged := latestMessageID != "" && latestMessageID != assignment.LastSeenMessageID

	// The counter advances by the number of observed new messages, not by 1:
	// several messages may land between two runs of a slow ant.
	working := assignment
	if roomChanged {
		if n := countNewMessagesSinceLastSeen(window, assignment.LastSeenMessageID); n > 0 {
			working = working.IncrementSummaryCounter(n)
		}
	}

	runner := o.registry.Runner(a.Model)

	summaryMissing := strings.TrimSpace(working.RollingSummary) == ""
	if roomChanged && (summaryMissing || working.SummaryMsgCounter >= o.summaryWindow) {
		summaryCtx := &ModelContext{
			RecentMessages: window,
			RollingSummary: working.RollingSummary,
			RoomScenario:   scenario,
			Personality:    a.PersonalityPrompt,
			RoleName:       roleName,
			RolePrompt:     rolePrompt,
		}
		updated, err := runner.GenerateSummary(ctx, a, roomID, summaryCtx, working.RollingSummary)
		if err != nil {
			o.logger.Error("summary regeneration failed antId=%s roomId=%s: %v", a.ID, roomID, err)
			finish(run.Failed("", errors.Summary(err)))
			return
		}
		if strings.TrimSpace(updated) != "" {
			// Carry the overflow past the window into the next cycle instead
			// of zeroing it, so bursty rooms don't starve future summaries.
			working = working.WithSummary(keepTail(updated, summaryMaxChars), working.SummaryMsgCounter-o.summaryWindow)
		}
	}

	if working.SummaryMsgCounter != assignment.SummaryMsgCounter || working.RollingSummary != assignment.RollingSummary {
		if err := o.store.Assignments.Update(ctx, working); err != nil {
			o.logger.Error("persist assignment failed antId=%s roomId=%s: %v", a.ID, roomID, err)
		}
	}

	now := time.Now().UTC()

	if !a.ReplyEvenIfNoNew && !roomChanged {
		finish(run.Succeeded("Skipped: no new messages in room."))
		if err := o.store.Assignments.Update(ctx, working.WithLastSeen(working.LastSeenMessageID, now)); err != nil {
			o.logger.Error("persist assignment failed antId=%s roomId=%s: %v", a.ID, roomID, err)
		}
		return
	}

	forceReply := a.ReplyEvenIfNoNew && !roomChanged
	mc := &ModelContext{
		RecentMessages: window,
		RollingSummary: working.RollingSummary,
		RoomScenario:   scenario,
		Personality:    a.PersonalityPrompt,
		RoleName:       roleName,
		RolePrompt:     rolePrompt,
		ThoughtJSON:    working.ThoughtJSON,
		ForceReply:     forceReply,
	}

	content, err := runner.GenerateMessage(ctx, a, roomID, mc)
	if err != nil {
		finish(run.Failed("", errors.Summary(err)))
		o.logger.Error("ant run failed antId=%s roomId=%s: %v", a.ID, roomID, err)
		return
	}
	content = strings.TrimSpace(content)
	if content == "" {
		finish(run.Failed("", "model runner returned blank content"))
		return
	}

	if forceReply && content == NoReplySentinel {
		finish(run.Succeeded("Declined: nothing worth adding."))
		if err := o.store.Assignments.Update(ctx, working.WithLastSeen(working.LastSeenMessageID, now)); err != nil {
			o.logger.Error("persist assignment failed antId=%s roomId=%s: %v", a.ID, roomID, err)
		}
		return
	}

	msg := domain.NewAntMessage(roomID, a.ID, a.Name, content)
	if err := o.store.Messages.Create(ctx, msg); err != nil {
		finish(run.Failed("", errors.Summary(err)))
		o.logger.Error("persist message failed antId=%s roomId=%s: %v", a.ID, roomID, err)
		return
	}
	o.broadcaster.Publish(roomID, msg)

	finish(run.Succeeded(fmt.Sprintf("Posted message to room. roomChanged=%t", roomChanged)))

	// The message we just posted is now the newest in the room.
	working = working.WithLastSeen(msg.ID, time.Now().UTC())
	if err := o.store.Assignments.Update(ctx, working); err != nil {
		o.logger.Error("persist assignment failed antId=%s roomId=%s: %v", a.ID, roomID, err)
	}

	o.refreshThought(ctx, a, roomID, working, mc, runner)
}

// refreshThought regenerates the reflective state after a successful post.
// Best-effort: failures are logged and recorded in metrics, never surfaced to
// the run.
func (o *Orchestrator) refreshThought(ctx context.Context, a domain.Ant, roomID string, working domain.AntRoomAssignment, mc *ModelContext, runner Runner) {
	raw, err := runner.GenerateThought(ctx, a, roomID, mc)
	if err != nil {
		o.logger.Warn("thought refresh failed antId=%s roomId=%s (continuing): %v", a.ID, roomID, err)
		return
	}
	if _, ok := ParseThought(raw); !ok {
		o.logger.Warn("thought refresh returned unparseable JSON antId=%s roomId=%s (discarding)", a.ID, roomID)
		return
	}
	if err := o.store.Assignments.Update(ctx, working.WithThought(strings.TrimSpace(raw))); err != nil {
		o.logger.Error("persist thought failed antId=%s roomId=%s: %v", a.ID, roomID, err)
	}
}

// countNewMessagesSinceLastSeen counts window entries newer than lastSeen.
// The window is newest first. An absent or unseen id means the whole window
// is new.
func countNewMessagesSinceLastSeen(newestFirst []domain.Message, lastSeenMessageID string) int {
	if len(newestFirst) == 0 {
		return 0
	}
	if strings.TrimSpace(lastSeenMessageID) == "" {
		return len(newestFirst)
	}
	for i, m := range newestFirst {
		if m.ID == lastSeenMessageID {
			return i
		}
	}
	return len(newestFirst)
}

// keepTail trims s to its last maxChars characters. The tail holds the most
// recent content, which is what a rolling summary must preserve.
func keepTail(s string, maxChars int) string {
	t := strings.TrimSpace(s)
	if maxChars <= 0 || len(t) <= maxChars {
		return t
	}
	return t[len(t)-maxChars:]
}
