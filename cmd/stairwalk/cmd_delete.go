package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nvandessel/stairwalk/internal/store"
	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			id := args[0]

			runStore, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer runStore.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			err = runStore.DeleteRun(ctx, id)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no stored run with id %s", id)
			}
			if err != nil {
				return fmt.Errorf("failed to delete run: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"status": "deleted",
					"id":     id,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return nil
		},
	}
}
