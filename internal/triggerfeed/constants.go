package triggerfeed

// Ack statuses returned by POST /triggers.
const (
	statusAccepted  = "accepted"
	statusUnchanged = "unchanged"
	statusDuplicate = "duplicate"
	statusFailed    = "failed"
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// PercentageMultiplier converts ratios to percentages in the final report.
const PercentageMultiplier = 100
