// pattern: Imperative Shell

package scheduler

import (
	"gitok/internal/logging"
	"gitok/internal/status"
)

// Notifier receives every applied scan together with the state it left
// the scheduler in. Calls are serial and in apply order.
type Notifier interface {
	Notify(result status.ScanResult, state State)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(result status.ScanResult, state State)

// Notify calls f.
func (f NotifierFunc) Notify(result status.ScanResult, state State) {
	f(result, state)
}

// LogNotifier writes one summary line per applied scan.
func LogNotifier(logger *logging.ScopedLogger) Notifier {
	return NotifierFunc(func(result status.ScanResult, state State) {
		sum := status.Summarize(result.Projects)
		args := []any{
			"root", result.Root,
			"remote", result.IncludeRemote,
			"projects", sum.Total,
			"attention", sum.AttentionCount,
			"changes", sum.WithChanges,
			"pending_push", sum.PendingPush,
			"behind", sum.Behind,
		}
		if state.NextCheckAt != nil {
			args = append(args, "next_check", state.NextCheckAt.Format("15:04:05"))
		}
		if result.Warning != "" {
			logger.Warn("scan applied with warning", append(args, "warning", result.Warning)...)
			return
		}
		logger.Info("scan applied", args...)
	})
}
