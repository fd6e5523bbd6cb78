/* ippclient - IPP client library
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Job and printer states
 */

package ippclient

import (
	"fmt"
)

// JobState represents the "job-state" enum value (RFC 8011, 5.3.7)
type JobState int32

// JobState values
const (
	JobPending           JobState = 3
	JobPendingHeld       JobState = 4
	JobProcessing        JobState = 5
	JobProcessingStopped JobState = 6
	JobCanceled          JobState = 7
	JobAborted           JobState = 8
	JobCompleted         JobState = 9
)

// IsTerminal tells if no further state transitions are possible
// for the job in this state
func (s JobState) IsTerminal() bool {
	switch s {
	case JobCanceled, JobAborted, JobCompleted:
		return true
	}
	return false
}

// String returns the keyword name of the state
func (s JobState) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobPendingHeld:
		return "pending-held"
	case JobProcessing:
		return "processing"
	case JobProcessingStopped:
		return "processing-stopped"
	case JobCanceled:
		return "canceled"
	case JobAborted:
		return "aborted"
	case JobCompleted:
		return "completed"
	}

	return fmt.Sprintf("unknown (%d)", int32(s))
}

// PrinterState represents the "printer-state" enum value (RFC 8011, 5.4.11)
type PrinterState int32

// PrinterState values
const (
	PrinterIdle       PrinterState = 3
	PrinterProcessing PrinterState = 4
	PrinterStopped    PrinterState = 5
)

// String returns the keyword name of the state
func (s PrinterState) String() string {
	switch s {
	case PrinterIdle:
		return "idle"
	case PrinterProcessing:
		return "processing"
	case PrinterStopped:
		return "stopped"
	}

	return fmt.Sprintf("unknown (%d)", int32(s))
}
