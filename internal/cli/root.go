/* ippclient - IPP client library
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * ippprint root command
 */

// Package cli implements commands of the ippprint utility.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/OpenPrinting/ippclient"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands, and the
// client environment, built from them
type RootOptions struct {
	ConfigPath string // Configuration file; "" for default
	Format     string // "text" | "json" | "yaml"
	Verbose    bool   // Enable debug and IPP trace on console
	Insecure   bool   // Don't verify TLS certificates

	conf ippclient.Configuration // Loaded configuration
	log  *ippclient.Logger       // Console logger
	exec *ippclient.Executor     // Shared transaction executor
}

// ValidFormats defines the allowed output formats
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command of the ippprint utility
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ippprint",
		Short: "ippprint - print and manage jobs on IPP printers",
		Long: `Submit documents to IPP printers, query job and printer
attributes, cancel jobs and wait for job completion.

Printers are identified by ipp:, ipps:, http: or https: URIs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v",
						opts.Format, ValidFormats))
			}
			return opts.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			opts.close()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "",
		"configuration file (default "+DefaultConfPath()+")")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text",
		"output format (text|json|yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false,
		"verbose output, including IPP trace")
	cmd.PersistentFlags().BoolVar(&opts.Insecure, "insecure", false,
		"don't verify TLS certificates of ipps: printers")

	cmd.AddCommand(NewPrintCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewWaitCommand(opts))
	cmd.AddCommand(NewCancelCommand(opts))
	cmd.AddCommand(NewAttrsCommand(opts))

	return cmd
}

// DefaultConfPath returns path to the default configuration file
func DefaultConfPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ippclient.ConfFileName
	}

	return filepath.Join(dir, "ippclient", ippclient.ConfFileName)
}

// setup loads configuration and creates client environment.
// It is safe to call setup multiple times
func (opts *RootOptions) setup() error {
	if opts.exec != nil {
		return nil
	}

	path := opts.ConfigPath
	if path == "" {
		path = DefaultConfPath()
	}

	conf, err := ippclient.LoadConfiguration(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "configuration", err)
	}

	if opts.Verbose {
		conf.LogConsole |= ippclient.LogDebug | ippclient.LogTraceIPP
	}

	if opts.Insecure {
		conf.TLSVerify = false
	}

	opts.conf = conf
	opts.log = conf.NewLogger()
	opts.exec = conf.NewExecutor(opts.log)

	return nil
}

// close releases resources, allocated by setup
func (opts *RootOptions) close() {
	opts.log.Close()
}

// formatter returns OutputFormatter for the command
func (opts *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}

// printer creates Printer for the URI, given in command line
func (opts *RootOptions) printer(uri string) (*ippclient.Printer, error) {
	err := opts.setup()
	if err != nil {
		return nil, err
	}

	p, err := ippclient.NewPrinter(uri, opts.exec, opts.conf.PrinterOptions()...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "printer", err)
	}

	return p, nil
}

// job creates Job for the printer URI and job ID, given
// in command line
func (opts *RootOptions) job(uri, id string) (*ippclient.Job, error) {
	jobID, err := strconv.ParseInt(id, 10, 32)
	if err != nil || jobID <= 0 {
		return nil, NewExitError(ExitCommandError,
			fmt.Sprintf("invalid job ID %q", id))
	}

	p, err := opts.printer(uri)
	if err != nil {
		return nil, err
	}

	return p.Job(int32(jobID)), nil
}

// isValidFormat checks if the format is one of the allowed values
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
