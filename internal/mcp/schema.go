package mcp

import (
	"time"

	"github.com/nvandessel/stairwalk/internal/summary"
)

// SimulateInput defines the input for the stairwalk_simulate tool.
// Zero values fall back to the configured defaults.
type SimulateInput struct {
	Seed      *uint64  `json:"seed,omitempty" jsonschema:"Random seed; the same seed reproduces the same walks"`
	Trials    int      `json:"trials,omitempty" jsonschema:"Number of independent walks (default 500)"`
	Steps     int      `json:"steps,omitempty" jsonschema:"Dice throws per walk (default 100)"`
	Bins      int      `json:"bins,omitempty" jsonschema:"Histogram bin count (default 15)"`
	Threshold *float64 `json:"threshold,omitempty" jsonschema:"Step height endpoints are compared against (default 60)"`
	Save      bool     `json:"save,omitempty" jsonschema:"Store the run in the local history"`
	Plot      string   `json:"plot,omitempty" jsonschema:"Write a histogram image (.png, .svg, .pdf, .jpg) to this path inside the project"`
}

// SimulateOutput defines the output for the stairwalk_simulate tool.
type SimulateOutput struct {
	Run   RunSummary `json:"run" jsonschema:"Run parameters and endpoint statistics"`
	Saved bool       `json:"saved" jsonschema:"Whether the run was stored in history"`
	Chart string     `json:"chart" jsonschema:"Text rendering of the endpoint histogram"`
	Plot  string     `json:"plot,omitempty" jsonschema:"Path of the written histogram image"`
}

// HistoryInput defines the input for the stairwalk_history tool.
type HistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of runs to return (default: all)"`
}

// HistoryOutput defines the output for the stairwalk_history tool.
type HistoryOutput struct {
	Runs  []RunSummary `json:"runs" jsonschema:"Stored runs, newest first"`
	Count int          `json:"count" jsonschema:"Number of runs returned"`
}

// ShowInput defines the input for the stairwalk_show tool.
type ShowInput struct {
	ID string `json:"id" jsonschema:"Run ID to show"`
}

// ShowOutput defines the output for the stairwalk_show tool.
type ShowOutput struct {
	Run       RunSummary        `json:"run"`
	Histogram summary.Histogram `json:"histogram"`
	Chart     string            `json:"chart"`
}

// ExportInput defines the input for the stairwalk_export tool.
type ExportInput struct {
	ID     string `json:"id" jsonschema:"Run ID to export"`
	Format string `json:"format,omitempty" jsonschema:"Export format: arrow (default) or archive"`
	Path   string `json:"path,omitempty" jsonschema:"Output file inside the project or ~/.stairwalk/exports (default ~/.stairwalk/exports/<id>.<ext>)"`
}

// ExportOutput defines the output for the stairwalk_export tool.
type ExportOutput struct {
	Path     string `json:"path"`
	Format   string `json:"format"`
	Walks    int    `json:"walks"`
	Rows     int64  `json:"rows,omitempty"`
	Checksum string `json:"checksum,omitempty"`
}

// RunSummary provides a compact view of a run.
type RunSummary struct {
	ID               string    `json:"id"`
	Seed             uint64    `json:"seed"`
	Trials           int       `json:"trials"`
	Steps            int       `json:"steps"`
	ResetProbability float64   `json:"reset_probability"`
	Threshold        float64   `json:"threshold"`
	Exceedance       float64   `json:"exceedance"`
	Mean             float64   `json:"mean"`
	Median           float64   `json:"median"`
	StdDev           float64   `json:"std_dev"`
	Min              float64   `json:"min"`
	Max              float64   `json:"max"`
	ResetWalks       int       `json:"reset_walks"`
	CreatedAt        time.Time `json:"created_at"`
}
