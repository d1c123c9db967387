package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/agentcore/runtime/hooks"
	"github.com/agentcore/runtime/state"
	"github.com/agentcore/runtime/telemetry"
)

// learningHook is the stateful AFTER_MODEL hooks.Hook hooks.go's own doc
// comment anticipates ("custom Hook implementations exist for stateful
// hooks, e.g. ones holding a repository handle"): it wires a
// LearningExtractor and a LearningRepository into the Hook Pipeline so an
// assistant turn can be mined for a learning trace without the pipeline
// itself knowing anything about learning.
type learningHook struct {
	phase hooks.Phase
	priority int
	extractor LearningExtractor
	repo LearningRepository
	logger telemetry.Logger
}

// NewLearningTraceHook returns an AFTER_MODEL hook that runs extractor
// against the turn just completed and, if it finds something worth
// keeping, persists it through repo. It never sets jump_to and never
// fails the turn on an extractor or repository error — a learning trace
// is best-effort bookkeeping, never load-bearing for the turn's own
// outcome, so failures are logged, not returned.
func NewLearningTraceHook(phase hooks.Phase, priority int, extractor LearningExtractor, repo LearningRepository, logger telemetry.Logger) hooks.Hook {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &learningHook{phase: phase, priority: priority, extractor: extractor, repo: repo, logger: logger}
}

func (h *learningHook) Position() hooks.Position { return hooks.AfterModel }
func (h *learningHook) Phase() hooks.Phase { return h.phase }
func (h *learningHook) Priority() int { return h.priority }
func (h *learningHook) Destinations() []hooks.JumpTarget { return nil }

func (h *learningHook) Run(ctx context.Context, st *state.OverAllState) (*state.Delta, error) {
	assistant, ok := lastAssistantMessage(st)
	if !ok {
		return nil, nil
	}

	lc := LearningContext{
		ThreadID: st.ThreadID,
		Phase: string(h.phase),
		AssistantMessage: assistant,
		Transcript: st.Messages(),
	}

	rec, ok, err := h.extractor.Extract(ctx, lc)
	if err != nil {
		h.logger.Error(ctx, "repository: learning extraction failed", "thread_id", st.ThreadID, "error", err)
		return nil, nil
	}
	if !ok {
		return nil, nil
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.ThreadID == "" {
		rec.ThreadID = st.ThreadID
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	if err := h.repo.Persist(ctx, rec); err != nil {
		h.logger.Error(ctx, "repository: learning persistence failed", "thread_id", st.ThreadID, "record_id", rec.ID, "error", err)
	}
	return nil, nil
}

// lastAssistantMessage returns the most recent Assistant message in st's
// transcript, if any.
func lastAssistantMessage(st *state.OverAllState) (state.Message, bool) {
	msgs := st.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == state.RoleAssistant {
			return msgs[i], true
		}
	}
	return state.Message{}, false
}
