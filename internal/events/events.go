// package events contains message types shared between the scheduler's
// notifiers, the web server and the tui package.
package events

import (
	"gitok/internal/scheduler"
	"gitok/internal/status"
)

// ScanCompletedMsg is sent after the scheduler applies a scan.
type ScanCompletedMsg struct {
	Result status.ScanResult
	State  scheduler.State
}

// ScheduleChangedMsg is sent when polling or the root changes without a
// scan being applied yet.
type ScheduleChangedMsg struct {
	State scheduler.State
}

// RootSelectedMsg is sent when a new root was chosen from any surface.
type RootSelectedMsg struct {
	Path string
}

// WebListenURLMsg is sent when the web server starts listening.
type WebListenURLMsg struct{ URL string }
