// Package repository collects the SPI surfaces external collaborators
// implement into one reference point. Most of them already have a
// dedicated, already-implemented home closer to the concern they serve
// (SearchProvider/ReplyChannel in tools, ExperienceRepository in
// experience, TriggerRepository/TriggerExecutionLogRepository/
// ExecutionBackend in trigger) — this package re-exports those via type
// alias rather than redeclaring them, so the full SPI list is discoverable
// from one package without a second, divergent copy of each interface.
//
// The two SPIs with no other home are declared here directly:
// LearningExtractor and LearningRepository, the AFTER_MODEL hook
// collaborators that post-process an assistant message to record a
// learning trace ("LearningExtractor.extract(context)",
// "LearningRepository.persist(record)").
package repository

import (
	"context"
	"time"

	"github.com/agentcore/runtime/experience"
	"github.com/agentcore/runtime/state"
	"github.com/agentcore/runtime/tools"
	"github.com/agentcore/runtime/trigger"
)

type (
	// SearchProvider is the SearchProvider SPI; see
	// tools.SearchProvider, which the search built-in calls directly.
	SearchProvider = tools.SearchProvider

	// ReplyChannel is the ReplyChannel SPI; see
	// tools.ReplyChannel, which the reply built-in calls directly.
	ReplyChannel = tools.ReplyChannel

	// ExperienceRepository is the ExperienceRepository SPI;
	// see experience.Store, which the Experience Store and Fast-Intent
	// Matcher query directly.
	ExperienceRepository = experience.Store

	// TriggerRepository is the TriggerRepository SPI; see
	// trigger.Store, which trigger.Scheduler persists Trigger records
	// through directly.
	TriggerRepository = trigger.Store

	// TriggerExecutionLogRepository is the 
	// TriggerExecutionLogRepository SPI; see trigger.ExecutionLogStore.
	TriggerExecutionLogRepository = trigger.ExecutionLogStore

	// ExecutionBackend is the ExecutionBackend SPI; see
	// trigger.Backend, satisfied by trigger/inmem and trigger/temporal.
	ExecutionBackend = trigger.Backend
)

// LearningContext is what an AFTER_MODEL hook has on hand to build a
// LearningRecord: the turn's identity, the assistant message the model
// call chain just produced, and the transcript it was produced against.
type LearningContext struct {
	ThreadID string
	RunID string
	Phase string
	AssistantMessage state.Message
	Transcript []state.Message
}

// LearningRecord is what a LearningExtractor produces and a
// LearningRepository persists: a durable trace of what the agent learned
// or did during a turn, independent of the Experience catalog (a
// LearningRecord is a raw trace; promoting one into a reusable
// experience.Experience, if ever warranted, is a separate, explicit step
// outside this SPI pair).
type LearningRecord struct {
	ID string
	ThreadID string
	RunID string
	Phase string
	Summary string
	Tags []string
	Metadata map[string]any
	CreatedAt time.Time
}

// LearningExtractor is the SPI "LearningExtractor.extract(context)":
// it inspects a completed AFTER_MODEL turn and decides whether it
// contains anything worth recording. Extract returns ok=false when the
// turn has nothing worth persisting (e.g. a plain conversational reply
// with no tool calls and no novel outcome) — that is not an error.
type LearningExtractor interface {
	Extract(ctx context.Context, lc LearningContext) (rec LearningRecord, ok bool, err error)
}

// LearningRepository is the SPI "LearningRepository.persist(record)".
type LearningRepository interface {
	Persist(ctx context.Context, rec LearningRecord) error
}
