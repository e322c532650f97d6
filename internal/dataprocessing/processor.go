package dataprocessing

import (
	"context"
	"log/slog"

	"marketpipe/internal/dataset"
	apperrors "marketpipe/internal/errors"
	"marketpipe/internal/infrastructure"
)

// Engine derives the analytical dataset from the raw constituents frame
type Engine struct {
	opts   ProcessingOptions
	logger *slog.Logger
}

// NewEngine creates a transformation engine that logs every step to logger
func NewEngine(opts ProcessingOptions, logger *slog.Logger) *Engine {
	return &Engine{
		opts:   opts,
		logger: infrastructure.WithComponent(logger, "transformation_engine"),
	}
}

// Transform runs the fixed step sequence over raw and returns the derived
// dataset: the outer join of the filled raw frame with its grouped
// aggregate. Every step runs even when an earlier one degraded.
func (e *Engine) Transform(ctx context.Context, raw *dataset.Frame) (*dataset.Frame, *Report, error) {
	if raw == nil {
		return nil, nil, apperrors.NewAppValidationError("transform input is nil")
	}
	report := newReport()

	filled := e.fillMissing(ctx, raw, report)
	filled, categorical, numeric := e.splitColumns(ctx, filled, report)
	grouped := e.groupedAggregate(ctx, filled, categorical, numeric, report)

	e.diagnostic(ctx, report, StepPivot, func() (*dataset.Frame, bool) {
		return Pivot(filled, categorical, numeric)
	})
	e.diagnostic(ctx, report, StepMelt, func() (*dataset.Frame, bool) {
		return Melt(filled), false
	})
	e.diagnostic(ctx, report, StepStack, func() (*dataset.Frame, bool) {
		return Stack(filled), false
	})

	merged, err := e.outerMerge(ctx, filled, grouped, categorical, report)
	if err != nil {
		return nil, report, err
	}

	e.diagnostic(ctx, report, StepConcatUnion, func() (*dataset.Frame, bool) {
		concatenated, union := ConcatUnion(filled)
		report.Diagnostics["concat"] = concatenated
		return union, false
	})

	return merged, report, nil
}

// fillMissing replaces nulls: numeric columns get a zero of their kind and
// other columns get UnknownLabel. The legacy mode picks a single fill value
// for the whole frame instead.
func (e *Engine) fillMissing(ctx context.Context, raw *dataset.Frame, report *Report) *dataset.Frame {
	missing := raw.MissingCount()

	var (
		filled *dataset.Frame
		action string
	)
	if e.opts.LegacyWholeFrameFill {
		numericFrame := len(raw.Numeric())*2 > raw.Width()
		filled = raw.FillNA(func(c dataset.Column) any {
			switch {
			case !numericFrame:
				return UnknownLabel
			case c.Kind.Numeric():
				return c.Kind.Zero()
			default:
				return int64(0)
			}
		})
		action = "whole-frame fill with " + UnknownLabel
		if numericFrame {
			action = "whole-frame fill with 0"
		}
	} else {
		filled = raw.FillNA(func(c dataset.Column) any {
			if c.Kind.Numeric() {
				return c.Kind.Zero()
			}
			return UnknownLabel
		})
		action = "per-column fill"
	}

	e.logger.InfoContext(ctx, "null_handling",
		slog.String("action", action),
		slog.Int("missing_cells", missing),
		slog.Int("rows", filled.Len()),
	)
	report.record(StepRecord{Step: StepNullHandling, Action: action, Rows: filled.Len(), Columns: filled.Width()})
	return filled
}

func (e *Engine) splitColumns(ctx context.Context, filled *dataset.Frame, report *Report) (*dataset.Frame, []string, []string) {
	classified := filled.Reclassify()
	categorical := classified.Categorical()
	numeric := classified.Numeric()

	e.logger.InfoContext(ctx, "categorical_split",
		slog.Any("categorical", categorical),
		slog.Any("numeric", numeric),
	)
	report.Categorical = categorical
	report.Numeric = numeric
	report.record(StepRecord{
		Step:    StepCategoricalSplit,
		Action:  "classified columns",
		Rows:    classified.Len(),
		Columns: classified.Width(),
	})
	return classified, categorical, numeric
}

// groupedAggregate sums every numeric column per distinct combination of
// categorical values. Without categorical columns the input is returned.
func (e *Engine) groupedAggregate(ctx context.Context, filled *dataset.Frame, categorical, numeric []string, report *Report) *dataset.Frame {
	if len(categorical) == 0 {
		e.logger.WarnContext(ctx, "grouped_aggregate",
			slog.String("action", "no categorical columns, using input unchanged"),
		)
		report.record(StepRecord{
			Step:     StepGroupedAggregate,
			Action:   "identity",
			Rows:     filled.Len(),
			Columns:  filled.Width(),
			Degraded: true,
		})
		return filled
	}

	grouped, err := filled.GroupBySum(categorical, numeric)
	if err != nil {
		e.logger.WarnContext(ctx, "grouped_aggregate",
			slog.String("action", "grouping failed, using input unchanged"),
			slog.String("error", err.Error()),
		)
		report.record(StepRecord{Step: StepGroupedAggregate, Action: "identity", Rows: filled.Len(), Columns: filled.Width(), Degraded: true})
		return filled
	}

	report.Diagnostics[StepGroupedAggregate] = grouped
	e.logger.InfoContext(ctx, "grouped_aggregate",
		slog.String("action", "group by categorical, sum numeric"),
		slog.Int("groups", grouped.Len()),
	)
	report.record(StepRecord{
		Step:    StepGroupedAggregate,
		Action:  "group by categorical, sum numeric",
		Rows:    grouped.Len(),
		Columns: grouped.Width(),
	})
	return grouped
}

// outerMerge joins the filled frame with the aggregate on the categorical
// columns. Without categorical columns the filled frame is the result.
func (e *Engine) outerMerge(ctx context.Context, filled, grouped *dataset.Frame, categorical []string, report *Report) (*dataset.Frame, error) {
	if len(categorical) == 0 {
		e.logger.WarnContext(ctx, "outer_merge",
			slog.String("action", "no join keys, derived dataset is the filled input"),
		)
		report.record(StepRecord{
			Step:     StepOuterMerge,
			Action:   "identity",
			Rows:     filled.Len(),
			Columns:  filled.Width(),
			Degraded: true,
		})
		return filled, nil
	}

	merged, err := filled.Merge(grouped, categorical, "", GroupedSuffix)
	if err != nil {
		e.logger.ErrorContext(ctx, "outer_merge",
			slog.String("action", "merge failed"),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.NewAppError(apperrors.ErrTypeValidation, "outer merge with grouped aggregate", err)
	}

	e.logger.InfoContext(ctx, "outer_merge",
		slog.String("action", "outer join on categorical columns"),
		slog.Int("rows", merged.Len()),
		slog.Int("columns", merged.Width()),
	)
	report.record(StepRecord{
		Step:    StepOuterMerge,
		Action:  "outer join on categorical columns",
		Rows:    merged.Len(),
		Columns: merged.Width(),
	})
	return merged, nil
}

// diagnostic runs a dead-end step when diagnostics are enabled and keeps its
// frame on the report
func (e *Engine) diagnostic(ctx context.Context, report *Report, step string, run func() (*dataset.Frame, bool)) {
	if !e.opts.Diagnostics {
		report.record(StepRecord{Step: step, Action: "disabled", Skipped: true})
		return
	}

	out, degraded := run()
	if degraded {
		e.logger.WarnContext(ctx, step, slog.String("action", "not enough column kinds, skipped"))
		report.record(StepRecord{Step: step, Action: "skipped", Degraded: true})
		return
	}

	e.logger.InfoContext(ctx, step,
		slog.Int("rows", out.Len()),
		slog.Int("columns", out.Width()),
	)
	report.Diagnostics[step] = out
	report.record(StepRecord{Step: step, Action: "diagnostic", Rows: out.Len(), Columns: out.Width()})
}
