package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/zenora/backend/internal/analysis/crisis"
)

// errCrisisDetected makes detect exit non-zero on a match.
var errCrisisDetected = errors.New("crisis keywords detected")

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect [text]",
		Short: "Run the crisis keyword detector on text or stdin",
		Long: `Scans the given text, or stdin when no argument is passed, for crisis
phrases. Prints the matched phrases and exits 1 when any were found.`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				raw, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(raw)
			}

			matches := crisis.Matches(text)
			out := cmd.OutOrStdout()
			if len(matches) == 0 {
				fmt.Fprintln(out, "no crisis keywords")
				return nil
			}
			for _, m := range matches {
				fmt.Fprintln(out, m)
			}
			return errCrisisDetected
		},
	}
}
