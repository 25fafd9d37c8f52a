package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nvandessel/stairwalk/internal/config"
	"github.com/nvandessel/stairwalk/internal/experiment"
	"github.com/nvandessel/stairwalk/internal/store"
	"github.com/nvandessel/stairwalk/internal/summary"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate an ensemble of staircase walks",
		Long: `Run the simulation and print a histogram of where the walkers ended,
along with the fraction that finished above the threshold step.

Flags override the configuration file and STAIRWALK_* environment variables.

Examples:
  stairwalk run                         # 500 walks of 100 throws, seed 123
  stairwalk run --seed 7 --trials 10000 # Bigger ensemble
  stairwalk run --plot ends.png --save  # Save an image and store the run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			plotPath, _ := cmd.Flags().GetString("plot")
			save, _ := cmd.Flags().GetBool("save")

			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			applyRunFlags(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger, events := newLoggers(cmd, cfg)
			defer events.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			res, err := experiment.Execute(ctx, experiment.FromConfig(cfg),
				experiment.WithLogger(logger), experiment.WithEvents(events))
			if err != nil {
				return fmt.Errorf("simulation failed: %w", err)
			}

			if plotPath != "" {
				title := fmt.Sprintf("Final step of %d walks (seed %d)", res.Params.Trials, res.Params.Seed)
				if err := summary.RenderImage(plotPath, res.Ends(), res.Params.Bins, title); err != nil {
					return fmt.Errorf("failed to write plot: %w", err)
				}
				logger.Info("plot written", "path", plotPath)
			}

			run := store.RunFromResult(res)
			saved := false
			if save || cfg.Store.AutoSave {
				runStore, err := openStore(cmd)
				if err != nil {
					return err
				}
				defer runStore.Close()

				if err := runStore.SaveRun(ctx, run); err != nil {
					return fmt.Errorf("failed to save run: %w", err)
				}
				saved = true
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"id":         res.ID,
					"params":     res.Params,
					"summary":    res.Summary,
					"created_at": res.CreatedAt,
					"saved":      saved,
					"plot":       plotPath,
				})
			}

			printRun(out, run)
			if saved {
				fmt.Fprintf(out, "\nSaved as %s\n", res.ID)
			}
			return nil
		},
	}

	cmd.Flags().Uint64("seed", 0, "Random seed (default from config: 123)")
	cmd.Flags().Int("trials", 0, "Number of walks (default 500)")
	cmd.Flags().Int("steps", 0, "Throws per walk (default 100)")
	cmd.Flags().Float64("reset-prob", 0, "Chance per throw of falling back to the ground (default 0.001)")
	cmd.Flags().Int("bins", 0, "Histogram bins (default 15)")
	cmd.Flags().Float64("threshold", 0, "Step the exceedance fraction is measured against (default 60)")
	cmd.Flags().String("plot", "", "Write a histogram image (.png, .svg, .pdf, .jpg)")
	cmd.Flags().Bool("save", false, "Store the run in the project history")

	return cmd
}

// applyRunFlags overlays explicitly set run flags on cfg.
func applyRunFlags(cmd *cobra.Command, cfg *config.StairwalkConfig) {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Simulation.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("trials") {
		cfg.Simulation.Trials, _ = flags.GetInt("trials")
	}
	if flags.Changed("steps") {
		cfg.Simulation.Steps, _ = flags.GetInt("steps")
	}
	if flags.Changed("reset-prob") {
		cfg.Simulation.ResetProbability, _ = flags.GetFloat64("reset-prob")
	}
	if flags.Changed("bins") {
		cfg.Summary.Bins, _ = flags.GetInt("bins")
	}
	if flags.Changed("threshold") {
		cfg.Summary.Threshold, _ = flags.GetFloat64("threshold")
	}
}

// printRun writes the human-readable report for a run.
func printRun(w io.Writer, r store.Run) {
	p := r.Params
	s := r.Summary

	fmt.Fprintf(w, "%s  seed=%d trials=%d steps=%d reset_prob=%g\n\n",
		r.ID, p.Seed, p.Trials, p.Rules.Steps, p.Rules.ResetProbability)
	summary.RenderText(w, s.Histogram, summary.DefaultBarWidth)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "mean %.2f  std %.2f  median %.1f  min %.0f  max %.0f\n",
		s.Mean, s.StdDev, s.Median, s.Min, s.Max)
	fmt.Fprintf(w, "walks that fell back to the ground: %d\n", s.ResetWalks)
	fmt.Fprintf(w, "fraction of walks ending above step %g: %.4f\n", s.Threshold, s.Exceedance)
}
