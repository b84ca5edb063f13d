package models

// SyncPhase names a stage of the initial sync.
type SyncPhase string

const (
	PhasePrepare  SyncPhase = "prepare"
	PhaseList     SyncPhase = "list"
	PhaseDetails  SyncPhase = "details"
	PhaseFinalize SyncPhase = "finalize"
)

// SyncProgress is an ephemeral snapshot of the orchestrator's state, pushed
// to an observer callback. It is recreated per run and never persisted.
type SyncProgress struct {
	Phase   SyncPhase
	Total   int
	Done    int
	Message string
}

// ProgressFunc receives progress snapshots. A nil ProgressFunc is valid and
// means "nobody is watching".
type ProgressFunc func(SyncProgress)
