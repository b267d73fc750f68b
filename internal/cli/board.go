package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/slate/internal/kanban"
	"github.com/mesh-intelligence/slate/internal/schedule"
)

func newBoardCmd(flags *rootFlags) *cobra.Command {
	var sortKey, character string
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show the production board",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := kanban.ParseSortKey(sortKey)
			if err != nil {
				return err
			}
			a, err := openApp(cmd, flags, true)
			if err != nil {
				return err
			}
			defer a.close()

			board := a.engine.View(key, character)
			if a.json {
				return writeJSON(cmd, board)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, col := range board.Columns {
				fmt.Fprintf(out, "%s (%d)\n", heading(col.Name, colorize), len(col.Scenes))
				if len(col.Scenes) > 0 {
					fmt.Fprintln(out, renderTable(sceneHeaders, sceneRows(col.Scenes), sceneAligns))
				}
				fmt.Fprintln(out)
			}
			if len(board.Unassigned) > 0 {
				fmt.Fprintf(out, "%s (%d)\n", heading("unassigned", colorize), len(board.Unassigned))
				fmt.Fprintln(out, renderTable(sceneHeaders, sceneRows(board.Unassigned), sceneAligns))
			}
			return nil
		},
	}
	keys := make([]string, 0, len(kanban.SortKeys()))
	for _, k := range kanban.SortKeys() {
		keys = append(keys, string(k))
	}
	cmd.Flags().StringVar(&sortKey, "sort", "", "sort key: "+strings.Join(keys, ", "))
	cmd.Flags().StringVar(&character, "character", "", "show only scenes with this character")
	return cmd
}

func newCharactersCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "characters",
		Short: "List every character on the board",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags, true)
			if err != nil {
				return err
			}
			defer a.close()

			names := a.engine.Characters()
			if a.json {
				return writeJSON(cmd, names)
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}
}

func newScheduleCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Show scenes grouped by shoot date",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags, true)
			if err != nil {
				return err
			}
			defer a.close()

			days := schedule.Project(a.engine.Scenes())
			if a.json {
				return writeJSON(cmd, days)
			}
			out := cmd.OutOrStdout()
			if len(days) == 0 {
				fmt.Fprintln(out, "No scenes have a shoot date.")
				return nil
			}
			colorize := shouldColorize(out)
			for _, d := range days {
				fmt.Fprintf(out, "%s (%d)\n", heading(d.Date, colorize), len(d.Scenes))
				fmt.Fprintln(out, renderTable(sceneHeaders, sceneRows(d.Scenes), sceneAligns))
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func newStatsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize production progress",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags, true)
			if err != nil {
				return err
			}
			defer a.close()

			st := schedule.Summarize(a.engine.Scenes())
			if a.json {
				return writeJSON(cmd, st)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Total", "Completed", "In Progress", "Waiting", "Progress"},
				[][]string{{
					strconv.Itoa(st.Total), strconv.Itoa(st.Completed), strconv.Itoa(st.InProgress),
					strconv.Itoa(st.Waiting), strconv.Itoa(st.Progress) + "%",
				}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			if len(st.Upcoming) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, heading("upcoming shoots", shouldColorize(out)))
				fmt.Fprintln(out, renderTable(sceneHeaders, sceneRows(st.Upcoming), sceneAligns))
			}
			return nil
		},
	}
}
