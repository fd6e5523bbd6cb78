/* ippclient - IPP client library
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * The print command
 */

package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/OpenPrinting/ippclient"
	"github.com/spf13/cobra"
)

// PrintOptions holds flags of the print command
type PrintOptions struct {
	DocumentFormat string
	JobName        string
	Copies         int32
	Sides          string
	Media          string
	NoWait         bool
}

// NewPrintCommand creates the print command
func NewPrintCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PrintOptions{}

	cmd := &cobra.Command{
		Use:   "print <printer-uri> <file>",
		Short: "Print a document and wait for job completion",
		Long: `Submit a document with the Print-Job operation. The document is
streamed to the printer as is; its format is guessed from the file
extension, unless specified explicitly.

Unless --no-wait is given, job state is polled until the job is
completed, aborted or canceled.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrint(rootOpts, opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.DocumentFormat, "document-format", "f", "",
		"document MIME type (default: guessed from file name)")
	cmd.Flags().StringVarP(&opts.JobName, "job-name", "j", "",
		"job name (default: file name)")
	cmd.Flags().Int32VarP(&opts.Copies, "copies", "n", 0,
		"number of copies")
	cmd.Flags().StringVar(&opts.Sides, "sides", "",
		"one-sided, two-sided-long-edge or two-sided-short-edge")
	cmd.Flags().StringVar(&opts.Media, "media", "",
		"media size name, like iso_a4_210x297mm")
	cmd.Flags().BoolVar(&opts.NoWait, "no-wait", false,
		"don't wait for job completion")

	return cmd
}

func runPrint(rootOpts *RootOptions, opts *PrintOptions,
	uri, path string, cmd *cobra.Command) error {

	if opts.Copies < 0 {
		return NewExitError(ExitCommandError, "copies must be positive")
	}

	p, err := rootOpts.printer(uri)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "document", err)
	}
	defer file.Close()

	name := filepath.Base(path)
	jobOpts := ippclient.JobOptions{
		DocumentFormat: opts.DocumentFormat,
		DocumentName:   name,
		JobName:        opts.JobName,
		Copies:         opts.Copies,
		Sides:          opts.Sides,
		Media:          opts.Media,
	}

	if jobOpts.DocumentFormat == "" {
		jobOpts.DocumentFormat = documentFormat(path)
	}

	if jobOpts.JobName == "" {
		jobOpts.JobName = name
	}

	ctx := cmd.Context()
	rsp, err := p.PrintJob(ctx, jobOpts, file)
	if err != nil {
		return err
	}

	job, err := p.JobFromResponse(rsp)
	if err != nil {
		return err
	}

	rootOpts.log.Info("%s: job %d created", uri, job.ID)

	res := newJobResult(job.ID, rsp.Job())
	if !opts.NoWait {
		res, err = waitJob(rootOpts, job, cmd)
		if err != nil {
			return err
		}
	}

	err = rootOpts.formatter(cmd).Print(res)
	if err == nil && !opts.NoWait && !res.Completed() {
		err = NewExitError(ExitFailure,
			fmt.Sprintf("job %d: %s", res.JobID, res.State))
	}

	return err
}

// documentFormat guesses document format by the file extension
func documentFormat(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return ippclient.DefaultDocumentFormat
	}

	format := mime.TypeByExtension(ext)
	if format == "" {
		return ippclient.DefaultDocumentFormat
	}

	// Strip parameters, like "; charset=utf-8"
	if i := strings.IndexByte(format, ';'); i >= 0 {
		format = strings.TrimSpace(format[:i])
	}

	return format
}
