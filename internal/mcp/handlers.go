package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/stairwalk/internal/experiment"
	"github.com/nvandessel/stairwalk/internal/export"
	"github.com/nvandessel/stairwalk/internal/pathutil"
	"github.com/nvandessel/stairwalk/internal/ratelimit"
	"github.com/nvandessel/stairwalk/internal/store"
	"github.com/nvandessel/stairwalk/internal/summary"
)

// Bounds on the work a single simulate call may request. maxPositions caps
// trials x (steps+1), the number of positions held in memory.
const (
	maxTrials    = 100_000
	maxSteps     = 10_000
	maxBins      = 1_000
	maxPositions = 5_000_000
)

// registerTools registers all stairwalk MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "stairwalk_simulate",
		Description: "Simulate dice-driven random walks up a staircase and summarize where the walkers end",
	}, s.handleSimulate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "stairwalk_history",
		Description: "List stored simulation runs, newest first",
	}, s.handleHistory)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "stairwalk_show",
		Description: "Show the endpoint statistics and histogram of a stored run",
	}, s.handleShow)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "stairwalk_export",
		Description: "Regenerate every walk of a stored run and write it as an Arrow IPC file or checksummed archive",
	}, s.handleExport)
}

// handleSimulate implements the stairwalk_simulate tool.
func (s *Server) handleSimulate(ctx context.Context, req *sdk.CallToolRequest, args SimulateInput) (_ *sdk.CallToolResult, _ SimulateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("stairwalk_simulate", start, retErr, map[string]any{
			"trials": args.Trials, "steps": args.Steps, "save": args.Save,
		})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "stairwalk_simulate"); err != nil {
		return nil, SimulateOutput{}, err
	}

	p := s.paramsFor(args)
	if err := checkBounds(p); err != nil {
		return nil, SimulateOutput{}, err
	}

	res, err := experiment.Execute(ctx, p, experiment.WithLogger(s.logger), experiment.WithEvents(s.events))
	if err != nil {
		return nil, SimulateOutput{}, err
	}

	var plotPath string
	if args.Plot != "" {
		if err := s.checkOutputPath(args.Plot); err != nil {
			return nil, SimulateOutput{}, err
		}
		plotPath = s.resolve(args.Plot)
		title := fmt.Sprintf("Final step of %d walks (seed %d)", p.Trials, p.Seed)
		if err := summary.RenderImage(plotPath, res.Ends(), p.Bins, title); err != nil {
			return nil, SimulateOutput{}, err
		}
	}

	run := store.RunFromResult(res)
	saved := false
	if args.Save || s.settings.Store.AutoSave {
		if err := s.store.SaveRun(ctx, run); err != nil {
			return nil, SimulateOutput{}, fmt.Errorf("failed to save run: %w", err)
		}
		saved = true
	}

	return nil, SimulateOutput{
		Run:   toRunSummary(run),
		Saved: saved,
		Chart: chart(res.Summary.Histogram),
		Plot:  plotPath,
	}, nil
}

func checkBounds(p experiment.Params) error {
	switch {
	case p.Trials > maxTrials:
		return fmt.Errorf("trials must be at most %d, got %d", maxTrials, p.Trials)
	case p.Rules.Steps > maxSteps:
		return fmt.Errorf("steps must be at most %d, got %d", maxSteps, p.Rules.Steps)
	case p.Bins > maxBins:
		return fmt.Errorf("bins must be at most %d, got %d", maxBins, p.Bins)
	case p.Trials*(p.Rules.Steps+1) > maxPositions:
		return fmt.Errorf("trials x (steps+1) must be at most %d, got %d", maxPositions, p.Trials*(p.Rules.Steps+1))
	}
	return nil
}

// handleHistory implements the stairwalk_history tool.
func (s *Server) handleHistory(ctx context.Context, req *sdk.CallToolRequest, args HistoryInput) (_ *sdk.CallToolResult, _ HistoryOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("stairwalk_history", start, retErr, map[string]any{"limit": args.Limit})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "stairwalk_history"); err != nil {
		return nil, HistoryOutput{}, err
	}

	runs, err := s.store.ListRuns(ctx, args.Limit)
	if err != nil {
		return nil, HistoryOutput{}, fmt.Errorf("failed to list runs: %w", err)
	}

	out := HistoryOutput{Runs: make([]RunSummary, 0, len(runs))}
	for _, r := range runs {
		out.Runs = append(out.Runs, toRunSummary(r))
	}
	out.Count = len(out.Runs)
	return nil, out, nil
}

// handleShow implements the stairwalk_show tool.
func (s *Server) handleShow(ctx context.Context, req *sdk.CallToolRequest, args ShowInput) (_ *sdk.CallToolResult, _ ShowOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("stairwalk_show", start, retErr, map[string]any{"id": args.ID})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "stairwalk_show"); err != nil {
		return nil, ShowOutput{}, err
	}
	if args.ID == "" {
		return nil, ShowOutput{}, fmt.Errorf("id is required")
	}

	run, err := s.store.GetRun(ctx, args.ID)
	if err != nil {
		return nil, ShowOutput{}, err
	}

	return nil, ShowOutput{
		Run:       toRunSummary(*run),
		Histogram: run.Summary.Histogram,
		Chart:     chart(run.Summary.Histogram),
	}, nil
}

// handleExport implements the stairwalk_export tool.
func (s *Server) handleExport(ctx context.Context, req *sdk.CallToolRequest, args ExportInput) (_ *sdk.CallToolResult, _ ExportOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("stairwalk_export", start, retErr, map[string]any{"id": args.ID, "format": args.Format})
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "stairwalk_export"); err != nil {
		return nil, ExportOutput{}, err
	}
	if args.ID == "" {
		return nil, ExportOutput{}, fmt.Errorf("id is required")
	}

	formatName := args.Format
	if formatName == "" {
		formatName = string(export.FormatArrow)
	}
	format, err := export.ParseFormat(formatName)
	if err != nil {
		return nil, ExportOutput{}, err
	}

	path := args.Path
	if path == "" {
		dir, err := store.GlobalStatePath()
		if err != nil {
			return nil, ExportOutput{}, err
		}
		path = filepath.Join(dir, pathutil.ExportsDir, args.ID+format.Ext())
	}
	if err := s.checkOutputPath(path); err != nil {
		return nil, ExportOutput{}, err
	}
	path = s.resolve(path)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, ExportOutput{}, fmt.Errorf("failed to create export directory: %w", err)
	}

	run, err := s.store.GetRun(ctx, args.ID)
	if err != nil {
		return nil, ExportOutput{}, err
	}

	report, err := export.WriteRun(ctx, run, format, path)
	if err != nil {
		return nil, ExportOutput{}, err
	}

	return nil, ExportOutput{
		Path:     report.Path,
		Format:   string(report.Format),
		Walks:    report.Walks,
		Rows:     report.Rows,
		Checksum: report.Checksum,
	}, nil
}

// resolve interprets a relative path against the project root.
func (s *Server) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.root, path)
}

// checkOutputPath rejects paths outside the project and the exports directory.
func (s *Server) checkOutputPath(path string) error {
	allowed, err := pathutil.AllowedOutputDirs(s.root)
	if err != nil {
		return err
	}
	return pathutil.ValidateOutputPath(s.resolve(path), allowed)
}

// paramsFor overlays tool arguments on the configured defaults.
func (s *Server) paramsFor(args SimulateInput) experiment.Params {
	p := experiment.FromConfig(s.settings)
	if args.Seed != nil {
		p.Seed = *args.Seed
	}
	if args.Trials > 0 {
		p.Trials = args.Trials
	}
	if args.Steps > 0 {
		p.Rules.Steps = args.Steps
	}
	if args.Bins > 0 {
		p.Bins = args.Bins
	}
	if args.Threshold != nil {
		p.Threshold = *args.Threshold
	}
	return p
}

func toRunSummary(r store.Run) RunSummary {
	return RunSummary{
		ID:               r.ID,
		Seed:             r.Params.Seed,
		Trials:           r.Params.Trials,
		Steps:            r.Params.Rules.Steps,
		ResetProbability: r.Params.Rules.ResetProbability,
		Threshold:        r.Params.Threshold,
		Exceedance:       r.Summary.Exceedance,
		Mean:             r.Summary.Mean,
		Median:           r.Summary.Median,
		StdDev:           r.Summary.StdDev,
		Min:              r.Summary.Min,
		Max:              r.Summary.Max,
		ResetWalks:       r.Summary.ResetWalks,
		CreatedAt:        r.CreatedAt,
	}
}

func chart(h summary.Histogram) string {
	var b strings.Builder
	_ = summary.RenderText(&b, h, 30)
	return b.String()
}
