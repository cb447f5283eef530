package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"gbxstrip/internal/pipeline"
)

type jsonReturn struct {
	Requested bool   `json:"requested"`
	Dir       string `json:"dir,omitempty"`
	Path      string `json:"path,omitempty"`
	Notice    string `json:"notice,omitempty"`
}

type jsonReport struct {
	ArtifactID   string     `json:"artifact_id"`
	Removed      bool       `json:"removed"`
	GhostUID     string     `json:"ghost_uid,omitempty"`
	MetaKey      string     `json:"meta_key"`
	OutputPath   string     `json:"output_path"`
	MapLogPath   string     `json:"map_log_path"`
	GhostLogPath string     `json:"ghost_log_path,omitempty"`
	IndexPath    string     `json:"index_path,omitempty"`
	MapReturn    jsonReturn `json:"return_map"`
	GhostReturn  jsonReturn `json:"return_ghost"`
	ReplayReturn jsonReturn `json:"return_replay"`
}

// printReport renders the run report to w. tty selects the rounded table
// over plain key-value lines; the caller decides it for the stream it
// actually writes to.
func printReport(w io.Writer, r *pipeline.Report, asJSON, tty bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(jsonReport{
			ArtifactID:   r.ArtifactID,
			Removed:      r.Removed,
			GhostUID:     r.GhostUID,
			MetaKey:      r.MetaKey,
			OutputPath:   r.OutputPath,
			MapLogPath:   r.MapLogPath,
			GhostLogPath: r.GhostLogPath,
			IndexPath:    r.IndexPath,
			MapReturn:    toJSONReturn(r.MapReturn),
			GhostReturn:  toJSONReturn(r.GhostReturn),
			ReplayReturn: toJSONReturn(r.ReplayReturn),
		})
	}

	rows := [][]string{
		{"artifact id", r.ArtifactID},
		{"ghost removed", yesNo(r.Removed)},
	}
	if r.Removed {
		rows = append(rows, []string{"ghost uid", r.GhostUID})
		rows = append(rows, []string{"metadata key", r.MetaKey})
	}
	rows = append(rows, []string{"output", r.OutputPath})
	rows = append(rows, []string{"map log", r.MapLogPath})
	if r.GhostLogPath != "" {
		rows = append(rows, []string{"ghost log", r.GhostLogPath})
	}
	if r.IndexPath != "" {
		rows = append(rows, []string{"run index", r.IndexPath})
	}
	rows = append(rows, returnRows("return map", r.MapReturn)...)
	rows = append(rows, returnRows("return ghost", r.GhostReturn)...)
	rows = append(rows, returnRows("return replay", r.ReplayReturn)...)

	if tty {
		fmt.Fprintln(w, renderTable([]string{"Field", "Value"}, rows))
		return nil
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%s: %s\n", row[0], row[1])
	}
	return nil
}

func returnRows(label string, r pipeline.ReturnResult) [][]string {
	if !r.Requested {
		return nil
	}
	if r.Path != "" {
		return [][]string{{label, r.Path}}
	}
	return [][]string{{label, "nothing returned: " + r.Notice}}
}

func toJSONReturn(r pipeline.ReturnResult) jsonReturn {
	return jsonReturn{Requested: r.Requested, Dir: r.Dir, Path: r.Path, Notice: r.Notice}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func renderTable(headers []string, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, cell := range row {
			r[i] = cell
		}
		tw.AppendRow(r)
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
