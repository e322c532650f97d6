package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cast"

	apperrors "marketpipe/internal/errors"
	"marketpipe/internal/infrastructure"
)

// Manager runs the registered steps sequentially in dependency order
type Manager struct {
	registry *Registry
	tracer   *OperationTracer
	logger   *slog.Logger
}

// NewManager creates a manager over the given registry. A nil tracer
// disables spans and metrics.
func NewManager(registry *Registry, tracer *OperationTracer, logger *slog.Logger) *Manager {
	if tracer == nil {
		tracer = NewOperationTracer(nil, nil)
	}
	return &Manager{
		registry: registry,
		tracer:   tracer,
		logger:   infrastructure.WithComponent(logger, "operation_manager"),
	}
}

// Registry returns the step registry
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Execute runs one pipeline operation. The returned state is populated even
// when the run fails.
func (m *Manager) Execute(ctx context.Context, operationID string) (*OperationState, error) {
	state := NewOperationState(operationID)

	steps, err := m.registry.GetDependencyOrder()
	if err != nil {
		fatal := NewFatalError("invalid step dependencies", err)
		state.Fail(fatal)
		return state, fatal
	}
	for _, step := range steps {
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	ctx, span := m.tracer.TraceOperationExecution(ctx, operationID)
	state.Start()
	m.logger.InfoContext(ctx, "operation_start",
		slog.String("operation_id", operationID),
		slog.Int("steps", len(steps)))

	runErr := m.executeSequential(ctx, steps, state)
	m.tracer.RecordOperationCompletion(span, runErr)

	if runErr != nil {
		state.Fail(runErr)
		infrastructure.WithError(m.logger, runErr).ErrorContext(ctx, "operation_error",
			slog.String("operation_id", operationID),
			slog.Duration("duration", state.Duration()))
		return state, runErr
	}

	state.Complete()
	m.logger.InfoContext(ctx, "operation_complete",
		slog.String("operation_id", operationID),
		slog.String("status", state.Status),
		slog.Any("failed_steps", state.FailedSteps()),
		slog.Duration("duration", state.Duration()))
	return state, nil
}

// executeSequential runs steps one at a time. A step failure that the step
// tolerates is logged and the run goes on; any other failure skips every
// remaining step and ends the run.
func (m *Manager) executeSequential(ctx context.Context, steps []Step, state *OperationState) error {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			m.skipRemaining(ctx, steps[i:], state, "operation cancelled")
			return NewCancellationError(step.ID(), err)
		}

		if dep, ok := m.checkDependencies(step, state); !ok {
			state.GetStage(step.ID()).Skip(fmt.Sprintf("dependency %s did not complete", dep))
			m.logger.WarnContext(ctx, "stage_skipped",
				slog.String("step", step.ID()),
				slog.String("dependency", dep))
			continue
		}

		err := m.executeStage(ctx, step, state)
		if err == nil {
			continue
		}
		if state.GetStage(step.ID()).Tolerated {
			continue
		}

		m.skipRemaining(ctx, steps[i+1:], state, fmt.Sprintf("run stopped after %s failed", step.ID()))
		return err
	}
	return nil
}

// executeStage runs a single step and records its outcome on the state
func (m *Manager) executeStage(ctx context.Context, step Step, state *OperationState) error {
	stepState := state.GetStage(step.ID())
	stageCtx, span := m.tracer.TraceStageExecution(ctx, state.ID, step.ID())

	m.logger.InfoContext(stageCtx, "executing_stage",
		slog.String("step", step.ID()),
		slog.String("name", step.Name()))

	stepState.Start()
	err := m.runStep(stageCtx, step, state)
	rows := rowsHandled(stepState)

	if err != nil {
		tolerated := m.tolerated(ctx, step, err)
		stepState.Fail(err, tolerated)
		m.tracer.RecordStageCompletion(stageCtx, span, step.ID(), stepState.Duration(), rows, err)

		level := slog.LevelError
		msg := "stage_failed"
		if tolerated {
			level = slog.LevelWarn
			msg = "stage_failed_continuing"
		}
		infrastructure.WithError(m.logger, err).Log(stageCtx, level, msg,
			slog.String("step", step.ID()),
			slog.String("error_type", errorLabel(err)),
			slog.Any("dependents", m.registry.GetDependents(step.ID())),
			slog.Duration("duration", stepState.Duration()))
		return err
	}

	stepState.Complete()
	m.tracer.RecordStageCompletion(stageCtx, span, step.ID(), stepState.Duration(), rows, nil)
	m.logger.InfoContext(stageCtx, "stage_completed_successfully",
		slog.String("step", step.ID()),
		slog.Int("rows", rows),
		slog.Duration("duration", stepState.Duration()))
	return nil
}

// runStep validates and executes a step, turning a panic into a fatal error
func (m *Manager) runStep(ctx context.Context, step Step, state *OperationState) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fatal := NewFatalError("step panicked", fmt.Errorf("%v", r))
			fatal.Step = step.ID()
			err = fatal
		}
	}()

	if verr := step.Validate(state); verr != nil {
		var opErr *OperationError
		if errors.As(verr, &opErr) {
			return opErr
		}
		validation := NewValidationError(step.ID(), "step validation failed")
		validation.Cause = verr
		return validation
	}

	if execErr := step.Execute(ctx, state); execErr != nil {
		return WrapError(execErr, step.ID(), "step execution failed")
	}
	return nil
}

// tolerated reports whether the run continues after err. Fatal errors and
// cancellation always stop the run.
func (m *Manager) tolerated(ctx context.Context, step Step, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	switch GetErrorType(err) {
	case ErrorTypeFatal, ErrorTypeCancellation:
		return false
	}
	return step.Tolerates(err)
}

// checkDependencies returns the first dependency that has not been satisfied
func (m *Manager) checkDependencies(step Step, state *OperationState) (string, bool) {
	for _, dep := range step.GetDependencies() {
		depState := state.GetStage(dep)
		if depState == nil || !depState.Satisfied() {
			return dep, false
		}
	}
	return "", true
}

// skipRemaining marks steps that will not run as skipped
func (m *Manager) skipRemaining(ctx context.Context, steps []Step, state *OperationState, reason string) {
	for _, step := range steps {
		state.GetStage(step.ID()).Skip(reason)
		m.logger.InfoContext(ctx, "stage_skipped",
			slog.String("step", step.ID()),
			slog.String("reason", reason))
	}
}

func rowsHandled(stepState *StepState) int {
	v, ok := stepState.GetMetadata(MetadataKeyRows)
	if !ok {
		return 0
	}
	return cast.ToInt(v)
}

// errorLabel names an error for logs and metrics, preferring the
// application error type
func errorLabel(err error) string {
	if t := apperrors.TypeOf(err); t != "" {
		return string(t)
	}
	return string(GetErrorType(err))
}
