// Package eval implements the Evaluation Engine: a
// compiled DAG of Criterion nodes producing labelled CriterionResults that
// downstream hooks and the Prompt Assembler consume.
package eval

import "time"

// ResultType constrains the shape of a Criterion's Value.
type ResultType string

const (
	Boolean ResultType = "BOOLEAN"
	Enum ResultType = "ENUM"
	Score ResultType = "SCORE"
	JSON ResultType = "JSON"
	Text ResultType = "TEXT"
)

// Status is the outcome of evaluating a single criterion (or one batch of
// one).
type Status string

const (
	Success Status = "SUCCESS"
	Error Status = "ERROR"
	Timeout Status = "TIMEOUT"
	Skipped Status = "SKIPPED"
)

// MatchMode is the comparison a ConditionalExecution applies to a dependency
// value.
type MatchMode string

const (
	Equals MatchMode = "EQUALS"
	NotEquals MatchMode = "NOT_EQUALS"
	NotNull MatchMode = "NOT_NULL"
	IsTrue MatchMode = "IS_TRUE"
	IsFalse MatchMode = "IS_FALSE"
)

type (
	// ConditionalExecution gates a criterion on a prior criterion's value.
	// When the mode is unmet against the named dependency's resolved value,
	// the criterion emits SKIPPED with DefaultValue instead of running, and
	// SkipReason (if set) is copied into the result's Reason.
	ConditionalExecution struct {
		DependsOnCriterion string
		Mode MatchMode
		Value any
		SkipReason string
	}

	// BatchingConfig splits a collection resolved at SourcePath into batches
	// evaluated concurrently (bounded by MaxConcurrentBatches), each with the
	// current batch bound under BatchBindingKey.
	BatchingConfig struct {
		Enabled bool
		SourcePath string
		BatchSize int
		MaxConcurrentBatches int
		BatchBindingKey string
	}

	// Criterion is a single node in an evaluation Suite's DAG.
	Criterion struct {
		Name string
		ResultType ResultType
		DependsOn []string
		EvaluatorRef string
		Conditional *ConditionalExecution
		Batching *BatchingConfig
		ContextBindings map[string]string
		CustomPrompt string
		WorkingMechanism string
		FewShots []string
		AggregationStrategy string
		DefaultValue any
	}

	// CriterionResult is the outcome written to state under per-criterion
	// keys, with Status and Value written atomically.
	CriterionResult struct {
		Status Status
		Value any
		Reason string
		RawResponse string
		StartedAt time.Time
		FinishedAt time.Time
		Metadata map[string]any
	}

	// CriterionExecutionContext is the frozen snapshot handed to an
	// Evaluator: the criterion being evaluated, the caller-supplied input
	// context, a read-only snapshot of already-resolved dependency results,
	// and any extra bindings (e.g. the current batch under
	// BatchingConfig.BatchBindingKey).
	CriterionExecutionContext struct {
		Criterion Criterion
		InputContext map[string]any
		DependencyResults map[string]CriterionResult
		ExtraBindings map[string]any
	}

	// Statistics summarizes one Suite run for telemetry/UI surfaces.
	Statistics struct {
		Total int
		Succeeded int
		Failed int
		Skipped int
		TimedOut int
	}

	// EvaluationResult is the full output of running a Suite once.
	EvaluationResult struct {
		CriteriaResults map[string]CriterionResult
		Statistics Statistics
	}
)

func experienceIDs(meta map[string]any) []string {
	if meta == nil {
		return nil
	}
	v, ok := meta["experience_ids"]
	if !ok {
		return nil
	}
	ids, _ := v.([]string)
	return ids
}
