/* ippclient - IPP client library
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * Job commands: status, wait, cancel
 */

package cli

import (
	"fmt"

	"github.com/OpenPrinting/ippclient"
	"github.com/spf13/cobra"
)

// jobAttrs are attributes, requested to describe the job
var jobAttrs = []string{
	ippclient.AttrJobID.Name,
	ippclient.AttrJobURI.Name,
	ippclient.AttrJobState.Name,
	ippclient.AttrJobStateReasons.Name,
	ippclient.AttrJobStateMessage.Name,
}

// NewStatusCommand creates the status command
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status <printer-uri> <job-id>",
		Short:         "Show job state",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := rootOpts.job(args[0], args[1])
			if err != nil {
				return err
			}

			res, err := jobStatus(job, cmd)
			if err != nil {
				return err
			}

			return rootOpts.formatter(cmd).Print(res)
		},
	}
}

// NewWaitCommand creates the wait command
func NewWaitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "wait <printer-uri> <job-id>",
		Short: "Wait for job completion",
		Long: `Poll job state until the job is completed, aborted or canceled.
The exit status is zero only if the job is completed.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := rootOpts.job(args[0], args[1])
			if err != nil {
				return err
			}

			res, err := waitJob(rootOpts, job, cmd)
			if err != nil {
				return err
			}

			err = rootOpts.formatter(cmd).Print(res)
			if err == nil && !res.Completed() {
				err = NewExitError(ExitFailure,
					fmt.Sprintf("job %d: %s", res.JobID, res.State))
			}

			return err
		},
	}
}

// NewCancelCommand creates the cancel command
func NewCancelCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "cancel <printer-uri> <job-id>",
		Short:         "Cancel the job",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := rootOpts.job(args[0], args[1])
			if err != nil {
				return err
			}

			rsp, err := job.CancelJob(cmd.Context())
			if err == nil {
				err = rsp.Err()
			}

			if err != nil {
				return err
			}

			rootOpts.log.Info("%s: job %d canceled", args[0], job.ID)

			res := &CancelResult{JobID: job.ID, Status: rsp.Status.String()}
			return rootOpts.formatter(cmd).Print(res)
		},
	}
}

// jobStatus queries job attributes
func jobStatus(job *ippclient.Job, cmd *cobra.Command) (*JobResult, error) {
	rsp, err := job.GetJobAttributes(cmd.Context(), jobAttrs...)
	if err == nil {
		err = rsp.Err()
	}

	if err != nil {
		return nil, err
	}

	return newJobResult(job.ID, rsp.Job()), nil
}

// waitJob polls job until it reaches terminal state, then
// queries the final job status
func waitJob(rootOpts *RootOptions, job *ippclient.Job,
	cmd *cobra.Command) (*JobResult, error) {

	poller := ippclient.Poller{
		Target:   job,
		Interval: rootOpts.conf.PollInterval,
		OnState: func(state ippclient.JobState) {
			rootOpts.log.Debug(' ', "job %d: %s", job.ID, state)
		},
	}

	_, err := poller.Wait(cmd.Context())
	if err != nil {
		return nil, err
	}

	return jobStatus(job, cmd)
}
