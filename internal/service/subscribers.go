package service

import (
	"context"
	"time"

	"github.com/brooklane/housecare/internal/domain/entity"
	"github.com/brooklane/housecare/internal/domain/workflow"
	"go.uber.org/zap"
)

// historyRecorder appends one audit entry per applied transition. It runs
// unconditionally, once per apply, and never touches past entries.
type historyRecorder struct {
	now func() time.Time
}

func (h *historyRecorder) OnTransitioned(ctx context.Context, principal workflow.Principal, subject workflow.Subject, transition *workflow.Transition, from, to workflow.Place) error {
	request, ok := subject.(*entity.ServiceRequest)
	if !ok {
		return nil
	}
	request.AppendHistory(from, to, transition.Name, principal.PrincipalID(), h.now())
	return nil
}

// completionStamper sets the completion timestamp the first time the
// subject enters the completed place. Re-entry is a no-op.
type completionStamper struct {
	now func() time.Time
}

func (c *completionStamper) OnEntered(ctx context.Context, principal workflow.Principal, subject workflow.Subject, transition *workflow.Transition, place workflow.Place) error {
	if place != workflow.PlaceCompleted {
		return nil
	}
	request, ok := subject.(*entity.ServiceRequest)
	if !ok {
		return nil
	}
	request.StampCompleted(c.now())
	return nil
}

// guardLogger emits the guard decision audit log. Fire-and-forget: it never
// affects the evaluation result.
type guardLogger struct {
	logger *zap.Logger
}

func (g *guardLogger) OnGuard(ctx context.Context, principal workflow.Principal, subject workflow.Subject, transition *workflow.Transition, decision workflow.Decision) {
	fields := []zap.Field{
		zap.Int64("principal_id", principal.PrincipalID()),
		zap.String("transition", transition.Name),
		zap.Bool("blocked", !decision.Allowed),
	}
	if !decision.Allowed {
		fields = append(fields, zap.String("reason", decision.Reason.Code))
	}
	g.logger.Info("Workflow guard check", fields...)
}

// RegisterSubscribers wires the fixed, ordered listener set onto the engine:
// guard decision logging, then the audit append, then completion stamping.
func RegisterSubscribers(engine *workflow.Engine, logger *zap.Logger, now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	engine.AddGuardListener(&guardLogger{logger: logger})
	engine.AddTransitionListener(&historyRecorder{now: now})
	engine.AddEnteredListener(&completionStamper{now: now})
}
