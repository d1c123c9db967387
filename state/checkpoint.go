package state

import "time"

// Checkpoint is a persisted snapshot of an OverAllState at a node boundary,
// keyed by (ThreadID, CheckpointID). The graph engine writes one on every
// node transition so a failed turn can roll back to the last checkpoint
// or an unrecoverable node error.
type Checkpoint struct {
	ThreadID string
	CheckpointID string
	ParentCheckpointID string
	StateBlob map[string]any
	CreatedAt time.Time
}

// CheckpointSaver persists and retrieves Checkpoints. The graph engine calls
// Save after every node boundary and Load when resuming a thread.
type CheckpointSaver interface {
	Save(cp Checkpoint) error
	Load(threadID, checkpointID string) (Checkpoint, bool, error)
	Latest(threadID string) (Checkpoint, bool, error)
}

// RunContext carries execution metadata for a single agent invocation,
// layering Run/Turn/Session identity on top of the bare thread_id.
type RunContext struct {
	ThreadID string
	RunID string
	SessionID string
	TurnID string
	ParentToolCallID string
	ParentRunID string
	Attempt int
	Labels map[string]string
}
