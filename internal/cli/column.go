package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/slate/pkg/types"
)

func newColumnCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "column",
		Short: "Manage board columns",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List board columns in order",
			Args:  exactArgs(0),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp(cmd, flags, true)
				if err != nil {
					return err
				}
				defer a.close()

				columns := a.engine.Columns()
				if a.json {
					return writeJSON(cmd, columns)
				}
				counts := make(map[string]int)
				for _, s := range a.engine.Scenes() {
					counts[s.EffectiveStatus()]++
				}
				rows := make([][]string, 0, len(columns))
				for _, c := range columns {
					rows = append(rows, []string{c, strconv.Itoa(counts[c])})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Column", "Scenes"}, rows,
					[]columnAlignment{alignLeft, alignRight}))
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <name>",
			Short: "Append a column to the board",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp(cmd, flags, true)
				if err != nil {
					return err
				}
				defer a.close()

				name := strings.TrimSpace(args[0])
				outcome, err := a.engine.AddColumn(ctxOf(cmd), name)
				if err != nil {
					return err
				}
				if outcome == types.ColumnDuplicate {
					return userErrf("column %q already exists", name)
				}
				if a.json {
					return writeJSON(cmd, a.engine.Columns())
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added column %s\n", name)
				return nil
			},
		},
	)
	return cmd
}
