package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/fairshare/alloc"
)

// validateCmd checks profile files without running the mechanism
var validateCmd = &cobra.Command{
	Use:   "validate <profile.yaml>...",
	Short: "Check that profile files are complete and well-formed",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if failed := validateFiles(cmd.OutOrStdout(), args); failed > 0 {
			logrus.Fatalf("%d of %d profiles are invalid", failed, len(args))
		}
	},
}

// validateFiles reports one line per path and returns how many failed.
func validateFiles(w io.Writer, paths []string) int {
	failed := 0
	for _, path := range paths {
		spec, err := alloc.LoadProfileSpec(path)
		if err == nil {
			var p *alloc.PreferenceProfile
			if p, err = spec.Build(spec.Config(alloc.DefaultConfig())); err == nil {
				fmt.Fprintf(w, "ok      %s (%d agents)\n", path, p.Size())
				continue
			}
		}
		failed++
		fmt.Fprintf(w, "invalid %s: %v\n", path, err)
	}
	return failed
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
