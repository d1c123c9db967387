// Package inmem implements experience.Store in memory: scope-priority
// fallback, text-relevance ranking, and the supporting dedup-by-id pass
//. It mirrors registry/store/memory pattern of
// a mutex-guarded map behind the package's SPI interface, generalized
// from an exact-key store into the scoped, ranked query engine the
// Experience Store needs.
package inmem

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/agentcore/runtime/apperr"
	"github.com/agentcore/runtime/experience"
)

// DefaultMaxRelevanceTextLength bounds how much of Query.Text and an
// experience's content is scanned for relevance ranking, so a
// pathologically long query or document can't make ranking quadratic in
// input size without limit (Open Question (b), resolved).
const DefaultMaxRelevanceTextLength = 4096

// Store is an in-memory experience.Store.
type Store struct {
	mu sync.RWMutex
	byID map[string]experience.Experience
	maxRelevanceTextLength int
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithMaxRelevanceTextLength overrides DefaultMaxRelevanceTextLength.
func WithMaxRelevanceTextLength(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxRelevanceTextLength = n
		}
	}
}

// New constructs an empty in-memory Store.
func New(opts ...Option) *Store {
	s := &Store{
		byID: map[string]experience.Experience{},
		maxRelevanceTextLength: DefaultMaxRelevanceTextLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create assigns exp an ID if it has none and stores it.
func (s *Store) Create(_ context.Context, exp experience.Experience) (experience.Experience, error) {
	if exp.ID == "" {
		exp.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[exp.ID] = exp
	return exp, nil
}

// Get returns the experience stored under id.
func (s *Store) Get(_ context.Context, id string) (experience.Experience, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	exp, ok := s.byID[id]
	if !ok {
		return experience.Experience{}, apperr.Errorf(apperr.NotFound, "experience: %q not found", id)
	}
	return exp, nil
}

// Update replaces the stored experience with the same ID.
func (s *Store) Update(_ context.Context, exp experience.Experience) (experience.Experience, error) {
	if exp.ID == "" {
		return experience.Experience{}, apperr.New(apperr.InvalidInput, "experience: update requires an id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[exp.ID]; !ok {
		return experience.Experience{}, apperr.Errorf(apperr.NotFound, "experience: %q not found", exp.ID)
	}
	s.byID[exp.ID] = exp
	return exp, nil
}

// Delete removes the experience stored under id. Deleting an unknown id
// is not an error.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	return nil
}

// Query implements the scope-fallback + text-relevance ranking
// shared with experience/mongo so both Store implementations rank identically.
func (s *Store) Query(_ context.Context, q experience.Query, _ experience.QueryContext) ([]experience.Experience, error) {
	s.mu.RLock()
	all := make([]experience.Experience, 0, len(s.byID))
	for _, exp := range s.byID {
		all = append(all, exp)
	}
	s.mu.RUnlock()

	scopes := q.Scopes
	useStepFallback := len(scopes) == 0

	var candidates []experience.Experience
	seen := map[string]bool{}

	appendUnique := func(matches []experience.Experience) {
		for _, exp := range matches {
			if seen[exp.ID] {
				continue
			}
			seen[exp.ID] = true
			candidates = append(candidates, exp)
		}
	}

	if useStepFallback {
		for _, step := range defaultScopeSteps() {
			appendUnique(filterByScopeStep(all, q, step))
		}
	} else {
		for _, sc := range scopes {
			appendUnique(filterByScope(all, q, sc))
		}
	}

	ranked := experience.Rank(candidates, q, s.maxRelevanceTextLength)

	if q.Limit > 0 && len(ranked) > q.Limit {
		ranked = ranked[:q.Limit]
	}
	return ranked, nil
}

type scopeStep struct {
	scope experience.Scope
	requireProject bool
}

// defaultScopeSteps expands "USER+PROJECT, USER, TEAM+PROJECT,
// TEAM, PROJECT, GLOBAL" default into concrete (scope, requireProject)
// steps, since Scope alone cannot express the "+PROJECT" qualifier.
func defaultScopeSteps() []scopeStep {
	return []scopeStep{
		{experience.ScopeUser, true},
		{experience.ScopeUser, false},
		{experience.ScopeTeam, true},
		{experience.ScopeTeam, false},
		{experience.ScopeProject, false},
		{experience.ScopeGlobal, false},
	}
}

func filterByScopeStep(all []experience.Experience, q experience.Query, step scopeStep) []experience.Experience {
	var out []experience.Experience
	for _, exp := range all {
		if !baseMatches(exp, q) || exp.Scope != step.scope {
			continue
		}
		if !ownerMatches(exp, q) {
			continue
		}
		if step.requireProject && !projectMatches(exp, q, true) {
			continue
		}
		if !step.requireProject && !projectMatches(exp, q, false) {
			continue
		}
		out = append(out, exp)
	}
	return out
}

func filterByScope(all []experience.Experience, q experience.Query, scope experience.Scope) []experience.Experience {
	var out []experience.Experience
	for _, exp := range all {
		if !baseMatches(exp, q) || exp.Scope != scope {
			continue
		}
		if !ownerMatches(exp, q) || !projectMatches(exp, q, false) {
			continue
		}
		out = append(out, exp)
	}
	return out
}

// ownerMatches requires owner_id equality only when the query names an
// owner, since scope matching requires owner_id/project_id equality
// where applicable.
func ownerMatches(exp experience.Experience, q experience.Query) bool {
	if q.OwnerID == "" {
		return true
	}
	return exp.OwnerID == q.OwnerID
}

// projectMatches requires project_id equality when the query names a
// project, or when require is true (the "+PROJECT" fallback step,
// which only accepts experiences actually scoped to that project).
func projectMatches(exp experience.Experience, q experience.Query, require bool) bool {
	if require {
		return q.ProjectID != "" && exp.ProjectID == q.ProjectID
	}
	if q.ProjectID == "" {
		return true
	}
	return exp.ProjectID == q.ProjectID
}

func baseMatches(exp experience.Experience, q experience.Query) bool {
	if q.Type != "" && exp.Type != q.Type {
		return false
	}
	if q.Language != "" && exp.Language != q.Language {
		return false
	}
	if len(q.Tags) > 0 && !hasAllTags(exp.Tags, q.Tags) {
		return false
	}
	return true
}

func hasAllTags(have, want []string) bool {
	set := map[string]bool{}
	for _, t := range have {
		set[t] = true
	}
	for _, t := range want {
		if !set[t] {
			return false
		}
	}
	return true
}

