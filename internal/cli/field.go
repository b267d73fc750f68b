package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/slate/pkg/types"
)

func newFieldCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "field",
		Short: "Manage custom scene fields",
	}
	cmd.AddCommand(newFieldAddCmd(flags), newFieldListCmd(flags), newFieldDeleteCmd(flags))
	return cmd
}

func newFieldAddCmd(flags *rootFlags) *cobra.Command {
	var (
		fieldType string
		options   []string
	)
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Define a custom field",
		Long: "Define a custom field. Types are short_text, long_text, single_select and\n" +
			"multi_select. Select options are given as --option label or label:color.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def := types.FieldDefinition{Name: args[0], Type: types.FieldType(fieldType)}
			for _, o := range options {
				label, color, _ := strings.Cut(o, ":")
				def.Options = append(def.Options, types.FieldOption{Label: label, Color: color})
			}

			a, err := openApp(cmd, flags, true)
			if err != nil {
				return err
			}
			defer a.close()

			id, err := a.engine.DefineField(ctxOf(cmd), def)
			if err != nil {
				return err
			}
			if a.json {
				return writeJSON(cmd, map[string]string{"id": id})
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&fieldType, "type", string(types.FieldShortText), "field type")
	cmd.Flags().StringArrayVar(&options, "option", nil, "select option as label[:color] (repeatable)")
	return cmd
}

func newFieldListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List custom fields",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags, true)
			if err != nil {
				return err
			}
			defer a.close()

			defs := a.engine.Fields()
			if a.json {
				return writeJSON(cmd, defs)
			}
			rows := make([][]string, 0, len(defs))
			for _, d := range defs {
				labels := make([]string, 0, len(d.Options))
				for _, o := range d.Options {
					labels = append(labels, o.Label)
				}
				rows = append(rows, []string{shortID(d.ID), d.Name, string(d.Type), strings.Join(labels, ", ")})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Name", "Type", "Options"}, rows, nil))
			return nil
		},
	}
}

func newFieldDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <field>",
		Short: "Remove a custom field from the board",
		Long:  "Remove a custom field. Values already on scenes are kept but no longer shown.",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags, true)
			if err != nil {
				return err
			}
			defer a.close()

			def, err := resolveField(a.engine.Fields(), args[0])
			if err != nil {
				return err
			}
			if err := a.engine.ArchiveField(ctxOf(cmd), def.ID); err != nil {
				return err
			}
			if a.json {
				return writeJSON(cmd, map[string]string{"id": def.ID})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted field %s\n", def.Name)
			return nil
		},
	}
}

// resolveField finds a live field by ID, ID prefix or name.
func resolveField(defs []types.FieldDefinition, ref string) (types.FieldDefinition, error) {
	for _, d := range defs {
		if d.ID == ref || strings.EqualFold(d.Name, ref) {
			return d, nil
		}
	}
	var match []types.FieldDefinition
	for _, d := range defs {
		if strings.HasPrefix(d.ID, ref) {
			match = append(match, d)
		}
	}
	if len(match) == 1 {
		return match[0], nil
	}
	return types.FieldDefinition{}, fmt.Errorf("field %q: %w", ref, types.ErrFieldNotFound)
}
