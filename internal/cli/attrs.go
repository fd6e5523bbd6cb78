/* ippclient - IPP client library
 *
 * Copyright (C) 2020 and up by Alexander Pevzner (pzz@apevzner.com)
 * See LICENSE for license terms and conditions
 *
 * The attrs command
 */

package cli

import (
	"github.com/spf13/cobra"
)

// NewAttrsCommand creates the attrs command
func NewAttrsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "attrs <printer-uri> [attribute-name...]",
		Short: "Show printer attributes",
		Long: `Query printer attributes with the Get-Printer-Attributes operation.
If no attribute names are given, the printer returns its default set.
Group names, like "all" or "printer-description", are accepted too.

Names with wildcards, like "printer-*" or "media-?ol-supported", are
matched locally against all printer attributes.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := rootOpts.printer(args[0])
			if err != nil {
				return err
			}

			names, patterns := globSplit(args[1:])
			rsp, err := p.GetPrinterAttributes(cmd.Context(), names...)
			if err == nil {
				err = rsp.Err()
			}

			if err != nil {
				return err
			}

			attrs := globFilter(rsp.Printer(), names, patterns)
			return rootOpts.formatter(cmd).Print(newAttrsResult(attrs))
		},
	}
}
