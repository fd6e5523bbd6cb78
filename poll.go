/* ippclient - IPP client library
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Job state polling
 */

package ippclient

import (
	"context"
	"fmt"
	"time"

	"github.com/OpenPrinting/goipp"
)

// DefaultPollInterval is the default interval between
// job state queries
const DefaultPollInterval = 3 * time.Second

// Poller waits for job completion by periodic querying of
// the job state.
//
// Each iteration sends Get-Job-Attributes request for the
// job-state attribute only, waits for response, and, if state
// is not terminal, sleeps for Interval. Requests are strictly
// sequential. There is no retry limit: polling ends when job
// reaches a terminal state (aborted, canceled or completed),
// on any error, or when context is canceled.
type Poller struct {
	Target   Target                                          // Job to poll
	Interval time.Duration                                   // 0 means DefaultPollInterval
	Sleep    func(ctx context.Context, d time.Duration) error // nil means context-aware time sleep
	OnState  func(state JobState)                            // Called on each received state
}

// Wait polls the job state until it becomes terminal and
// returns the final state.
//
// Missed or malformed job-state in the response is the
// terminal error wrapping ErrAttrAbsent. Unsuccessful IPP
// status is returned as *StatusError.
func (p *Poller) Wait(ctx context.Context) (JobState, error) {
	for {
		err := ctx.Err()
		if err != nil {
			return 0, err
		}

		state, err := pollJobState(ctx, p.Target)
		if err != nil {
			return 0, err
		}

		if p.OnState != nil {
			p.OnState(state)
		}

		if state.IsTerminal() {
			return state, nil
		}

		err = ctx.Err()
		if err == nil {
			err = p.sleep(ctx)
		}

		if err != nil {
			return 0, err
		}
	}
}

// sleep waits for the poll interval
func (p *Poller) sleep(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	if p.Sleep != nil {
		return p.Sleep(ctx, interval)
	}

	return sleepCtx(ctx, interval)
}

// pollJobState performs a single job-state query
func pollJobState(ctx context.Context, t Target) (JobState, error) {
	rsp, err := getAttributes(ctx, t, goipp.OpGetJobAttributes,
		[]string{AttrJobState.Name})
	if err != nil {
		return 0, err
	}

	err = rsp.Err()
	if err != nil {
		return 0, err
	}

	state, ok := Get(rsp.Job(), AttrJobState)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrAttrAbsent, AttrJobState.Name)
	}

	return state, nil
}

// sleepCtx sleeps for the specified duration or until
// context is canceled
func sleepCtx(ctx context.Context, d time.Duration) error {
	tmr := time.NewTimer(d)
	defer tmr.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-tmr.C:
		return nil
	}
}
