// Package dataprocessing derives the analytical S&P 500 dataset from the raw
// constituents table.
//
// # Steps
//
// The engine runs a fixed sequence over the raw frame:
//
//	1. null_handling      numeric nulls become 0, other nulls "Unknown"
//	2. categorical_split  column kinds are recomputed from the filled data
//	3. grouped_aggregate  group by every categorical column, sum numerics
//	4. pivot              diagnostic, mean of the first numeric column
//	5. melt               diagnostic, (variable, value) long form
//	6. stack              diagnostic, (level_0, level_1, value) long form
//	7. outer_merge        raw outer-joined with the aggregate, "_grouped" suffix
//	8. concat_union       diagnostic, raw+raw and raw+distinct(raw)
//
// Only the outer_merge result leaves the engine. Diagnostic frames are kept on
// the Report and are skipped entirely when ProcessingOptions.Diagnostics is off.
//
// # Usage
//
//	engine := dataprocessing.NewEngine(dataprocessing.DefaultOptions(), logger)
//	derived, report, err := engine.Transform(ctx, raw)
//	if err != nil {
//	    return err
//	}
//	if report.Degraded() {
//	    logger.Warn("transformation degraded")
//	}
//
// # Degraded paths
//
// A frame without categorical columns cannot be grouped or joined. The
// aggregate and the derived dataset are then the filled input itself, a
// warning is logged and the step record is marked Degraded. This is not an
// error.
package dataprocessing
