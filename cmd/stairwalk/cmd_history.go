package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nvandessel/stairwalk/internal/store"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored runs",
		Long: `List runs saved with "stairwalk run --save", newest first.

Examples:
  stairwalk history
  stairwalk history --limit 5 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")

			runStore, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer runStore.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			runs, err := runStore.ListRuns(ctx, limit)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"runs":  runs,
					"count": len(runs),
				})
			}

			if len(runs) == 0 {
				fmt.Fprintln(out, "No stored runs. Use 'stairwalk run --save' to keep one.")
				return nil
			}

			fmt.Fprintf(out, "%-16s  %-20s  %20s  %7s  %5s  %8s  %10s\n",
				"ID", "CREATED", "SEED", "TRIALS", "STEPS", "MEAN", "EXCEEDANCE")
			for _, r := range runs {
				fmt.Fprintf(out, "%-16s  %-20s  %20d  %7d  %5d  %8.2f  %10.4f\n",
					r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					r.Params.Seed, r.Params.Trials, r.Params.Rules.Steps,
					r.Summary.Mean, r.Summary.Exceedance)
			}
			return nil
		},
	}

	cmd.Flags().Int("limit", 0, "Maximum number of runs to show (0 for all)")
	cmd.AddCommand(newHistoryPruneCmd())

	return cmd
}

func newHistoryPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old runs from the history",
		Long: `Delete stored runs that fall outside the retention policy.

A run is kept if any given policy keeps it.

Examples:
  stairwalk history prune --keep 20
  stairwalk history prune --older-than 30d
  stairwalk history prune --keep 5 --older-than 2w --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			keep, _ := cmd.Flags().GetInt("keep")
			olderThan, _ := cmd.Flags().GetString("older-than")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			policy, err := retentionPolicy(keep, olderThan)
			if err != nil {
				return err
			}

			runStore, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer runStore.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			var removed []string
			if dryRun {
				removed, err = prunePreview(ctx, runStore, policy)
			} else {
				removed, err = store.Prune(ctx, runStore, policy)
			}
			if err != nil {
				return fmt.Errorf("failed to prune history: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"removed": removed,
					"count":   len(removed),
					"dry_run": dryRun,
				})
			}

			verb := "Removed"
			if dryRun {
				verb = "Would remove"
			}
			fmt.Fprintf(out, "%s %d run(s)\n", verb, len(removed))
			for _, id := range removed {
				fmt.Fprintf(out, "  %s\n", id)
			}
			return nil
		},
	}

	cmd.Flags().Int("keep", 0, "Keep the N most recent runs")
	cmd.Flags().String("older-than", "", "Keep runs newer than this age (e.g. 72h, 30d, 2w)")
	cmd.Flags().Bool("dry-run", false, "Show what would be removed without deleting")

	return cmd
}

// retentionPolicy builds the union of the requested policies.
func retentionPolicy(keep int, olderThan string) (store.RetentionPolicy, error) {
	var policies []store.RetentionPolicy
	if keep > 0 {
		policies = append(policies, &store.CountPolicy{MaxCount: keep})
	}
	if olderThan != "" {
		age, err := store.ParseDuration(olderThan)
		if err != nil {
			return nil, fmt.Errorf("invalid --older-than: %w", err)
		}
		policies = append(policies, &store.AgePolicy{MaxAge: age})
	}

	switch len(policies) {
	case 0:
		return nil, fmt.Errorf("specify --keep and/or --older-than")
	case 1:
		return policies[0], nil
	default:
		return &store.CompositePolicy{Policies: policies}, nil
	}
}

// prunePreview lists the runs Prune would delete.
func prunePreview(ctx context.Context, s store.RunStore, policy store.RetentionPolicy) ([]string, error) {
	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		return nil, err
	}

	kept := make(map[string]bool)
	for _, r := range policy.Apply(runs) {
		kept[r.ID] = true
	}

	var removed []string
	for _, r := range runs {
		if !kept[r.ID] {
			removed = append(removed, r.ID)
		}
	}
	return removed, nil
}
