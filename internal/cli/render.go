package cli

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mesh-intelligence/slate/pkg/types"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiCyan  = "\x1b[36m"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

// heading renders a section title such as a board column name.
func heading(title string, colorize bool) string {
	line := cases.Title(language.Und).String(strings.ReplaceAll(title, "_", " "))
	if colorize {
		return ansiBold + ansiCyan + line + ansiReset
	}
	return line
}

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// shortID trims a UUID to its first eight characters for tables.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func complexityOf(s types.Scene) string {
	if s.Analysis == nil {
		return ""
	}
	return string(s.Analysis.Complexity)
}

func titleOf(s types.Scene) string {
	if s.Analysis != nil && s.Analysis.Title != "" {
		return s.Analysis.Title
	}
	return ""
}

func doneMark(s types.Scene) string {
	if s.Completed {
		return "✓"
	}
	return ""
}

// sceneRows renders the table rows shared by board and schedule output.
func sceneRows(scenes []types.Scene) [][]string {
	rows := make([][]string, 0, len(scenes))
	for _, s := range scenes {
		rows = append(rows, []string{
			shortID(s.ID),
			s.SceneNumber,
			s.Slugline,
			titleOf(s),
			s.ShootDate,
			string(s.TimeOfDay),
			strings.Join(s.Characters, ", "),
			complexityOf(s),
			doneMark(s),
		})
	}
	return rows
}

var sceneHeaders = []string{"ID", "#", "Slugline", "Title", "Shoot Date", "Time", "Cast", "Complexity", "Done"}
var sceneAligns = []columnAlignment{alignLeft, alignRight}
