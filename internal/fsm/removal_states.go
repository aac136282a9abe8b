package fsm

const (
	// EventValidate is triggered to confirm the plugin exists and may be removed
	EventValidate = "validate"
	// EventCollect is triggered to gather the paths the removal will delete
	EventCollect = "collect"
	// EventMark is triggered to persist the removal marker
	EventMark = "mark"
	// EventDelete is triggered to delete the collected paths
	EventDelete = "delete"
	// EventNotify is triggered to report config files kept back
	EventNotify = "notify"
	// EventFail is triggered when a station fails; the machine stays failed
	EventFail = "fail"
)

// RemovalState constants represent the stations a plugin removal passes
// through, in order. The machine only moves forward, so a delete cannot
// start before the marker station has run.
const (
	// StateToBeRemoved indicates the removal has been requested but nothing checked yet
	StateToBeRemoved = "to_be_removed"
	// StateValidated indicates the plugin exists and its layout is usable
	StateValidated = "validated"
	// StateCollected indicates the doomed paths have been gathered
	StateCollected = "collected"
	// StateMarked indicates the removal marker is on disk
	StateMarked = "marked"
	// StateDeleted indicates the collected paths and the marker are gone
	StateDeleted = "deleted"
	// StateNotified indicates the preserved-config notice has been issued
	StateNotified = "notified"
	// StateFailed indicates a station failed and the removal stopped
	StateFailed = "failed"
)

// IsTerminalState reports whether the machine can make no further progress.
func IsTerminalState(state string) bool {
	switch state {
	case StateNotified, StateFailed:
		return true
	default:
		return false
	}
}
