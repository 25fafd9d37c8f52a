package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nvandessel/stairwalk/internal/export"
	"github.com/nvandessel/stairwalk/internal/store"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export every walk of a stored run",
		Long: `Export the full ensemble of a stored run.

Only endpoints are stored, so the walks are regenerated from the run's
seed and parameters. The regenerated endpoints are checked against the
stored ones before anything is written.

Formats:
  arrow    Arrow IPC file with one row per (trial, step)
  archive  JSON header line plus a checksummed gzip payload

Examples:
  stairwalk export run-1a2b3c4d5e6f
  stairwalk export run-1a2b3c4d5e6f --format archive --out walks.json.gz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			formatName, _ := cmd.Flags().GetString("format")
			outPath, _ := cmd.Flags().GetString("out")
			id := args[0]

			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = id + format.Ext()
			}

			runStore, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer runStore.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			run, err := runStore.GetRun(ctx, id)
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no stored run with id %s", id)
			}
			if err != nil {
				return fmt.Errorf("failed to load run: %w", err)
			}

			report, err := export.WriteRun(ctx, run, format, outPath)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(report)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s (%d walks) to %s\n", id, report.Walks, report.Path)
			return nil
		},
	}

	cmd.Flags().String("format", "arrow", "Export format: arrow or archive")
	cmd.Flags().String("out", "", "Output file (default <id>.arrow or <id>.json.gz)")

	return cmd
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <archive>",
		Short: "Verify an exported archive's checksum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			path := args[0]

			header, err := export.ReadArchiveHeader(path)
			if err != nil {
				return fmt.Errorf("failed to read archive header: %w", err)
			}
			if err := export.VerifyChecksum(path); err != nil {
				if jsonOut {
					json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
						"path":  path,
						"valid": false,
						"error": err.Error(),
					})
				}
				return fmt.Errorf("archive %s failed verification: %w", path, err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"path":     path,
					"valid":    true,
					"run_id":   header.RunID,
					"trials":   header.Trials,
					"steps":    header.Steps,
					"checksum": header.Checksum,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: OK (run %s, %d walks x %d steps)\n",
				path, header.RunID, header.Trials, header.Steps)
			return nil
		},
	}
}
