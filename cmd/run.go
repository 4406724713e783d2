package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/fairshare/alloc"
	"github.com/inference-sim/fairshare/alloc/trace"
)

var (
	profilePath string // Path to the YAML profile
	traceLevel  string // Trace verbosity
	showLottery bool   // Print the lottery audit
)

// runCmd allocates items for one profile file
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute allocation probabilities and draw one assignment",
	Run: func(cmd *cobra.Command, args []string) {
		if profilePath == "" {
			logrus.Fatalf("--profile is required")
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level %q; valid: none, rounds", traceLevel)
		}

		spec, err := alloc.LoadProfileSpec(profilePath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		drawSeed := resolveSeed(spec, seed, cmd.Flags().Changed("seed"))

		res, err := allocateSpec(profilePath, spec, drawSeed, trace.TraceLevel(traceLevel))
		if err != nil {
			logrus.Fatalf("Allocation failed: %v", err)
		}

		w := cmd.OutOrStdout()
		if err := writeProbabilities(w, res.Profile, res.Outcome.Matrix, res.Config.Epsilon); err != nil {
			logrus.Fatalf("Rendering probabilities failed: %v", err)
		}
		if showLottery {
			writeLottery(w, res.Outcome.Lottery, res.Outcome.Assignment)
		}
		writeAssignments(w, res.Outcome.Assignment)
		if res.Trace.Enabled() {
			writeTraceSummary(w, trace.Summarize(res.Trace))
		}
		logrus.Info("Allocation complete.")
	},
}

func init() {
	runCmd.Flags().StringVar(&profilePath, "profile", "", "Path to the YAML preference profile")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Trace level (none, rounds)")
	runCmd.Flags().BoolVar(&showLottery, "show-lottery", false, "Print every assignment in the lottery with its weight")

	rootCmd.AddCommand(runCmd)
}
