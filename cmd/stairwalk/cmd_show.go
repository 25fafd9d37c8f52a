package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nvandessel/stairwalk/internal/store"
	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			withEnds, _ := cmd.Flags().GetBool("ends")

			runStore, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer runStore.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			run, err := runStore.GetRun(ctx, args[0])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no stored run with id %s", args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to load run: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				if !withEnds {
					run.Ends = nil
				}
				return json.NewEncoder(out).Encode(run)
			}

			printRun(out, *run)
			if withEnds {
				fmt.Fprintf(out, "\nendpoints: %v\n", run.Ends)
			}
			return nil
		},
	}

	cmd.Flags().Bool("ends", false, "Include every walk's final step")

	return cmd
}
