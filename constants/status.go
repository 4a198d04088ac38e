package constants

// RunStatus is the canonical status for rows in runs.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusQueued    RunStatus = "QUEUED"
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusTextOK    RunStatus = "TEXT_OK"   // text acquired
	RunStatusExtracted RunStatus = "EXTRACTED" // deadlines extracted
	RunStatusSynced    RunStatus = "SYNCED"    // calendar events created
	RunStatusFailed    RunStatus = "FAILED"
)

// Strategy records which extraction path produced a chunk's candidates.
type Strategy string

const (
	StrategyModel Strategy = "model"
	StrategyRules Strategy = "rules"
	StrategyMixed Strategy = "mixed" // different chunks used different paths
	StrategyNone  Strategy = "none"
)
