package eval

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/agentcore/runtime/apperr"
	"github.com/agentcore/runtime/telemetry"
)

// Suite is a compiled DAG of Criterion nodes. Construct with NewSuite,
// register criteria with AddCriterion, then call Run.
//
// Compilation: levels are computed by longest dependency path;
// criteria at the same level run in parallel bounded by maxConcurrency.
// Unlike engine this package models the "synthetic join node"
// calls for implicitly: Run waits for an entire level to finish
// before starting the next, which is exactly a join's serialization effect
// without needing a distinct node type.
type Suite struct {
	criteria map[string]Criterion
	order []string
	evaluators *EvaluatorRegistry
	aggregations *AggregationRegistry
	maxConcurrency int64
	limiter *rate.Limiter
	logger telemetry.Logger
	tracer telemetry.Tracer
}

// Option configures a Suite at construction time.
type Option func(*Suite)

// WithMaxConcurrency bounds how many criteria in a single level evaluate
// concurrently. Batches within one criterion are bounded separately, by
// BatchingConfig.MaxConcurrentBatches.
func WithMaxConcurrency(n int) Option {
	return func(s *Suite) { s.maxConcurrency = int64(n) }
}

// WithEvaluators attaches a pre-populated EvaluatorRegistry.
func WithEvaluators(r *EvaluatorRegistry) Option {
	return func(s *Suite) { s.evaluators = r }
}

// WithAggregations attaches a pre-populated AggregationRegistry.
func WithAggregations(r *AggregationRegistry) Option {
	return func(s *Suite) { s.aggregations = r }
}

// WithLogger attaches a logger for criterion-failure diagnostics.
func WithLogger(l telemetry.Logger) Option {
	return func(s *Suite) { s.logger = l }
}

// WithRateLimit bounds sustained evaluator-call throughput to rps calls
// per second across the whole Suite, permitting bursts up to burst.
// This is distinct from WithMaxConcurrency: concurrency bounds how many
// calls run at once, the rate limiter bounds how fast new ones start. A
// non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Suite) {
		if rps <= 0 {
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTracer attaches a tracer used to span each criterion evaluation.
func WithTracer(t telemetry.Tracer) Option {
	return func(s *Suite) { s.tracer = t }
}

// NewSuite constructs an empty Suite.
func NewSuite(opts ...Option) *Suite {
	s := &Suite{
		criteria: map[string]Criterion{},
		evaluators: NewEvaluatorRegistry(),
		aggregations: NewAggregationRegistry(),
		logger: telemetry.NewNoopLogger(),
		tracer: telemetry.NewNoopTracer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddCriterion registers c. Registering the same name twice overwrites the
// prior registration but keeps its original position for level compilation
// determinism.
func (s *Suite) AddCriterion(c Criterion) *Suite {
	if _, exists := s.criteria[c.Name]; !exists {
		s.order = append(s.order, c.Name)
	}
	s.criteria[c.Name] = c
	return s
}

// compileLevels computes levels by longest dependency path. Returns an
// error if a criterion depends on an unregistered criterion or the graph
// has a cycle.
func (s *Suite) compileLevels() ([][]string, error) {
	level := make(map[string]int, len(s.criteria))
	var resolve func(name string, visiting map[string]bool) (int, error)
	resolve = func(name string, visiting map[string]bool) (int, error) {
		if lv, ok := level[name]; ok {
			return lv, nil
		}
		c, ok := s.criteria[name]
		if !ok {
			return 0, apperr.Errorf(apperr.InvalidInput, "eval: criterion %q depends on unregistered criterion", name)
		}
		if visiting[name] {
			return 0, apperr.Errorf(apperr.InvalidInput, "eval: dependency cycle detected at criterion %q", name)
		}
		visiting[name] = true
		maxDep := -1
		for _, dep := range c.DependsOn {
			lv, err := resolve(dep, visiting)
			if err != nil {
				return 0, err
			}
			if lv > maxDep {
				maxDep = lv
			}
		}
		delete(visiting, name)
		level[name] = maxDep + 1
		return level[name], nil
	}

	for _, name := range s.order {
		if _, err := resolve(name, map[string]bool{}); err != nil {
			return nil, err
		}
	}

	maxLevel := -1
	for _, lv := range level {
		if lv > maxLevel {
			maxLevel = lv
		}
	}
	levels := make([][]string, maxLevel+1)
	for _, name := range s.order {
		lv := level[name]
		levels[lv] = append(levels[lv], name)
	}
	return levels, nil
}

// Run executes the suite to completion against inputContext and
// extraBindings, returning every criterion's result plus summary
// statistics.
func (s *Suite) Run(ctx context.Context, inputContext map[string]any, extraBindings map[string]any) (*EvaluationResult, error) {
	levels, err := s.compileLevels()
	if err != nil {
		return nil, err
	}

	results := make(map[string]CriterionResult, len(s.criteria))
	var resultsMu sync.Mutex

	var sem *semaphore.Weighted
	if s.maxConcurrency > 0 {
		sem = semaphore.NewWeighted(s.maxConcurrency)
	}

	for _, names := range levels {
		var wg sync.WaitGroup
		for _, name := range names {
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				if sem != nil {
					if err := sem.Acquire(ctx, 1); err != nil {
						resultsMu.Lock()
						results[name] = CriterionResult{Status: Error, Reason: err.Error()}
						resultsMu.Unlock()
						return
					}
					defer sem.Release(1)
				}
				resultsMu.Lock()
				depSnapshot := snapshotDeps(s.criteria[name].DependsOn, results)
				resultsMu.Unlock()

				spanCtx, span := s.tracer.Start(ctx, "eval.criterion."+name)
				res := s.evalCriterion(spanCtx, s.criteria[name], inputContext, depSnapshot, extraBindings, sem)
				span.End()

				resultsMu.Lock()
				results[name] = res
				resultsMu.Unlock()
			}(name)
		}
		wg.Wait()
	}

	return &EvaluationResult{CriteriaResults: results, Statistics: computeStatistics(results)}, nil
}

func snapshotDeps(dependsOn []string, results map[string]CriterionResult) map[string]CriterionResult {
	snap := make(map[string]CriterionResult, len(dependsOn))
	for _, dep := range dependsOn {
		if r, ok := results[dep]; ok {
			snap[dep] = r
		}
	}
	return snap
}

func (s *Suite) evalCriterion(ctx context.Context, c Criterion, inputContext map[string]any, deps map[string]CriterionResult, extra map[string]any, sem *semaphore.Weighted) CriterionResult {
	for _, dep := range c.DependsOn {
		if _, ok := deps[dep]; !ok {
			return CriterionResult{Status: Error, Reason: fmt.Sprintf("unresolved required dependency %q", dep)}
		}
	}

	if c.Conditional != nil {
		depResult, ok := deps[c.Conditional.DependsOnCriterion]
		if !ok {
			return CriterionResult{Status: Error, Reason: fmt.Sprintf("conditional depends on unresolved criterion %q", c.Conditional.DependsOnCriterion)}
		}
		if !matchCondition(c.Conditional.Mode, depResult.Value, c.Conditional.Value) {
			return CriterionResult{Status: Skipped, Value: c.DefaultValue, Reason: c.Conditional.SkipReason}
		}
	}

	ec := CriterionExecutionContext{
		Criterion: c,
		InputContext: inputContext,
		DependencyResults: deps,
		ExtraBindings: extra,
	}

	evaluator, err := s.evaluators.Resolve(c.EvaluatorRef)
	if err != nil {
		return CriterionResult{Status: Error, Reason: err.Error()}
	}

	if c.Batching == nil || !c.Batching.Enabled {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return CriterionResult{Status: Error, Reason: err.Error()}
			}
		}
		res, err := evaluator.Evaluate(ctx, ec)
		if err != nil {
			return CriterionResult{Status: Error, Reason: err.Error()}
		}
		return res
	}

	return s.runBatched(ctx, c, ec, evaluator, sem)
}

func (s *Suite) runBatched(ctx context.Context, c Criterion, ec CriterionExecutionContext, evaluator Evaluator, outerSem *semaphore.Weighted) CriterionResult {
	root := bindingRoot(ec)
	collection, ok := resolvePath(root, c.Batching.SourcePath)
	if !ok {
		return CriterionResult{Status: Error, Reason: fmt.Sprintf("batching source_path %q did not resolve", c.Batching.SourcePath)}
	}
	items, ok := toSlice(collection)
	if !ok {
		return CriterionResult{Status: Error, Reason: fmt.Sprintf("batching source_path %q is not a collection", c.Batching.SourcePath)}
	}

	batchSize := c.Batching.BatchSize
	if batchSize <= 0 {
		batchSize = len(items)
		if batchSize == 0 {
			batchSize = 1
		}
	}
	var batches [][]any
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}

	batchResults := make([]CriterionResult, len(batches))

	maxConcurrent := int64(c.Batching.MaxConcurrentBatches)
	if maxConcurrent <= 0 {
		maxConcurrent = int64(len(batches))
		if maxConcurrent == 0 {
			maxConcurrent = 1
		}
	}
	sem := semaphore.NewWeighted(maxConcurrent)

	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		go func(i int, batch []any) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				batchResults[i] = CriterionResult{Status: Error, Reason: err.Error()}
				return
			}
			defer sem.Release(1)

			if s.limiter != nil {
				if err := s.limiter.Wait(ctx); err != nil {
					batchResults[i] = CriterionResult{Status: Error, Reason: err.Error()}
					return
				}
			}

			bindingKey := c.Batching.BatchBindingKey
			if bindingKey == "" {
				bindingKey = "batch"
			}
			extra := cloneBindings(ec.ExtraBindings)
			extra[bindingKey] = batch

			batchEC := CriterionExecutionContext{
				Criterion: ec.Criterion,
				InputContext: ec.InputContext,
				DependencyResults: ec.DependencyResults,
				ExtraBindings: extra,
			}
			res, err := evaluator.Evaluate(ctx, batchEC)
			if err != nil {
				batchResults[i] = CriterionResult{Status: Error, Reason: err.Error()}
				return
			}
			batchResults[i] = res
		}(i, batch)
	}
	wg.Wait()

	agg, ok := s.aggregations.Resolve(c.AggregationStrategy)
	if !ok {
		return CriterionResult{Status: Error, Reason: fmt.Sprintf("unregistered aggregation strategy %q", c.AggregationStrategy)}
	}
	return agg(batchResults)
}

func matchCondition(mode MatchMode, actual, want any) bool {
	switch mode {
	case Equals:
		return actual == want
	case NotEquals:
		return actual != want
	case NotNull:
		return actual != nil
	case IsTrue:
		v, ok := actual.(bool)
		return ok && v
	case IsFalse:
		v, ok := actual.(bool)
		return ok && !v
	default:
		return false
	}
}

func cloneBindings(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func bindingRoot(ec CriterionExecutionContext) map[string]any {
	deps := make(map[string]any, len(ec.DependencyResults))
	for name, r := range ec.DependencyResults {
		deps[name] = map[string]any{
			"value": r.Value,
			"status": string(r.Status),
			"reason": r.Reason,
		}
	}
	return map[string]any{
		"context": ec.InputContext,
		"dependencies": deps,
		"extra": ec.ExtraBindings,
	}
}

// resolvePath navigates root using dotted paths like
// "context.input.tools" or "dependencies.collect_tools.value".
func resolvePath(root map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = root
	for _, part := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, item := range s {
			out[i] = item
		}
		return out, true
	default:
		return nil, false
	}
}

func computeStatistics(results map[string]CriterionResult) Statistics {
	stats := Statistics{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case Success:
			stats.Succeeded++
		case Error:
			stats.Failed++
		case Skipped:
			stats.Skipped++
		case Timeout:
			stats.TimedOut++
		}
	}
	return stats
}
