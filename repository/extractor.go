package repository

import (
	"context"
	"fmt"
	"strings"
)

// ToolCallExtractor is the reference LearningExtractor: it treats a turn
// as worth recording exactly when the assistant message carried at least
// one tool call ('s example, "record learning traces", reads
// naturally as capturing what the agent *did*, not every conversational
// reply). The summary lists the tool names invoked, in order; richer
// extraction (e.g. diffing the resulting state against the experience
// catalog to decide whether a new Experience should be proposed) is a
// concrete deployment's job, not this reference default's.
type ToolCallExtractor struct{}

// NewToolCallExtractor constructs a ToolCallExtractor.
func NewToolCallExtractor() ToolCallExtractor { return ToolCallExtractor{} }

func (ToolCallExtractor) Extract(_ context.Context, lc LearningContext) (LearningRecord, bool, error) {
	if len(lc.AssistantMessage.ToolCalls) == 0 {
		return LearningRecord{}, false, nil
	}

	names := make([]string, len(lc.AssistantMessage.ToolCalls))
	tags := make([]string, 0, len(lc.AssistantMessage.ToolCalls))
	seen := map[string]bool{}
	for i, tc := range lc.AssistantMessage.ToolCalls {
		names[i] = tc.Name
		if !seen[tc.Name] {
			seen[tc.Name] = true
			tags = append(tags, tc.Name)
		}
	}

	rec := LearningRecord{
		ThreadID: lc.ThreadID,
		RunID: lc.RunID,
		Phase: lc.Phase,
		Summary: fmt.Sprintf("turn invoked: %s", strings.Join(names, ", ")),
		Tags: tags,
		Metadata: map[string]any{"tool_call_count": len(lc.AssistantMessage.ToolCalls)},
	}
	return rec, true, nil
}
