package model

// Stage represents the lifecycle stage of a download job
type Stage string

const (
	// StageIdle means the job was created but not started
	StageIdle Stage = "idle"

	// StageProbing means metadata is being queried in simulate mode
	StageProbing Stage = "probing"

	// StageDownloading means raw streams are being transferred
	StageDownloading Stage = "downloading"

	// StagePaused means the transfer is held by the pause gate
	StagePaused Stage = "paused"

	// StageMerging means streams are being merged or converted
	StageMerging Stage = "merging"

	// StageCompleted means the output file is final
	StageCompleted Stage = "completed"

	// StageAborted means the user cancelled the job
	StageAborted Stage = "aborted"

	// StageFailed means the job ended with an error
	StageFailed Stage = "failed"
)

// String returns the string representation of Stage
func (s Stage) String() string {
	return string(s)
}

// IsFinished returns true if the stage is terminal (completed, aborted, or failed)
func (s Stage) IsFinished() bool {
	return s == StageCompleted || s == StageAborted || s == StageFailed
}

// CanTransition reports whether moving from s to next is a legal state change.
// Aborted and Failed are reachable from any non-terminal stage.
func (s Stage) CanTransition(next Stage) bool {
	if s.IsFinished() {
		return false
	}
	if next == StageAborted || next == StageFailed {
		return true
	}
	switch s {
	case StageIdle:
		return next == StageProbing
	case StageProbing:
		// a throttled probe loops back for a fresh attempt
		return next == StageDownloading || next == StageProbing
	case StageDownloading:
		return next == StagePaused || next == StageMerging || next == StageProbing
	case StagePaused:
		// resume returns to the stage the gate interrupted
		return next == StageDownloading || next == StageMerging
	case StageMerging:
		return next == StageCompleted || next == StagePaused || next == StageProbing
	}
	return false
}
