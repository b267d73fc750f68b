package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/slate/internal/kanban"
	"github.com/mesh-intelligence/slate/pkg/types"
)

// sceneFlags are the editable scene properties shared by add-scene and set.
type sceneFlags struct {
	sceneNumber string
	slugline    string
	body        string
	status      string
	shootDate   string
	timeOfDay   string
	characters  []string
	completed   bool
	fields      []string
}

func (f *sceneFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.sceneNumber, "scene-number", "", "scene number")
	fs.StringVar(&f.slugline, "slugline", "", "scene heading, e.g. \"INT. KITCHEN - DAY\"")
	fs.StringVar(&f.body, "body", "", "scene text")
	fs.StringVar(&f.status, "status", "", "board column")
	fs.StringVar(&f.shootDate, "shoot-date", "", "shoot date (YYYY-MM-DD, empty to clear)")
	fs.StringVar(&f.timeOfDay, "time-of-day", "", "morning, afternoon, evening or night")
	fs.StringSliceVar(&f.characters, "character", nil, "character in the scene (repeatable)")
	fs.BoolVar(&f.completed, "completed", false, "mark the scene completed")
	fs.StringArrayVar(&f.fields, "field", nil, "custom field value as <field-id>=<value> (repeatable; empty value clears)")
}

func parseTimeOfDay(s string) (types.TimeOfDay, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	tod, ok := types.ParseTimeOfDay(s)
	if !ok {
		return "", userErrf("invalid time of day %q", s)
	}
	return tod, nil
}

// fieldValues parses --field flags against the board's live fields.
// Multi-select values are comma separated.
func fieldValues(raw []string, defs []types.FieldDefinition) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	byKey := make(map[string]types.FieldDefinition, len(defs)*2)
	for _, d := range defs {
		byKey[d.ID] = d
		byKey[strings.ToLower(d.Name)] = d
	}
	values := make(map[string]any, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, userErrf("field %q: want <field>=<value>", kv)
		}
		def, found := byKey[key]
		if !found {
			def, found = byKey[strings.ToLower(strings.TrimSpace(key))]
		}
		if !found {
			return nil, fmt.Errorf("field %q: %w", key, types.ErrFieldNotFound)
		}
		switch {
		case value == "":
			values[def.ID] = nil
		case def.Type == types.FieldMultiSelect:
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			values[def.ID] = parts
		default:
			values[def.ID] = value
		}
	}
	return values, nil
}

func newAddSceneCmd(flags *rootFlags) *cobra.Command {
	var sf sceneFlags
	cmd := &cobra.Command{
		Use:   "add-scene",
		Short: "Add a scene to the board by hand",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			tod, err := parseTimeOfDay(sf.timeOfDay)
			if err != nil {
				return err
			}
			a, err := openApp(cmd, flags, true)
			if err != nil {
				return err
			}
			defer a.close()

			values, err := fieldValues(sf.fields, a.engine.Fields())
			if err != nil {
				return err
			}
			draft := types.SceneDraft{
				SceneNumber: sf.sceneNumber,
				Slugline:    sf.slugline,
				Body:        sf.body,
				Status:      sf.status,
				Completed:   sf.completed,
				ShootDate:   sf.shootDate,
				TimeOfDay:   tod,
				Characters:  sf.characters,
			}
			if len(values) > 0 {
				draft.CustomFieldValues = values
			}
			if draft.ShootDate != "" && draft.Status == "" {
				draft.Status = types.StatusScheduled
			}
			id, err := a.engine.CreateScene(ctxOf(cmd), draft)
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
	sf.register(cmd)
	return cmd
}

func newSetCmd(flags *rootFlags) *cobra.Command {
	var (
		sf         sceneFlags
		complexity string
		reanalyze  bool
	)
	cmd := &cobra.Command{
		Use:   "set <scene>",
		Short: "Update a scene's properties",
		Long: "Update the given properties of a scene. <scene> is a scene ID, a unique ID\n" +
			"prefix or a scene number. Setting a shoot date on an unscheduled scene\n" +
			"moves it to scheduled.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags, true)
			if err != nil {
				return err
			}
			defer a.close()

			scene, err := a.resolveScene(args[0])
			if err != nil {
				return err
			}
			patch, err := buildPatch(cmd, &sf, a.engine.Fields())
			if err != nil {
				return err
			}

			ctx := ctxOf(cmd)
			if complexity != "" || reanalyze {
				form := kanban.EditForm{Patch: patch}
				if complexity != "" {
					cx, ok := types.ParseComplexity(complexity)
					if !ok {
						return userErrf("invalid complexity %q", complexity)
					}
					form.Complexity = cx
				}
				err = a.engine.Edit(ctx, scene.ID, form)
			} else {
				if patch.IsEmpty() {
					return userErrf("nothing to set")
				}
				err = a.engine.Update(ctx, scene.ID, patch)
			}
			if err != nil {
				return err
			}

			updated, _ := a.engine.Scene(scene.ID)
			if a.json {
				return writeJSON(cmd, updated)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scene %s is %s\n", updated.SceneNumber, updated.EffectiveStatus())
			return nil
		},
	}
	sf.register(cmd)
	cmd.Flags().StringVar(&complexity, "complexity", "", "override the analyzed complexity: Low, Medium or High")
	cmd.Flags().BoolVar(&reanalyze, "reanalyze", false, "re-run analysis on the scene body")
	return cmd
}

// buildPatch turns the flags the user actually set into a patch.
func buildPatch(cmd *cobra.Command, sf *sceneFlags, defs []types.FieldDefinition) (types.ScenePatch, error) {
	var p types.ScenePatch
	changed := cmd.Flags().Changed
	if changed("scene-number") {
		p.SceneNumber = &sf.sceneNumber
	}
	if changed("slugline") {
		p.Slugline = &sf.slugline
	}
	if changed("body") {
		p.Body = &sf.body
	}
	if changed("status") {
		p.Status = &sf.status
	}
	if changed("shoot-date") {
		p.ShootDate = &sf.shootDate
	}
	if changed("time-of-day") {
		tod, err := parseTimeOfDay(sf.timeOfDay)
		if err != nil {
			return p, err
		}
		p.TimeOfDay = &tod
	}
	if changed("character") {
		chars := append([]string{}, sf.characters...)
		p.Characters = &chars
	}
	if changed("completed") {
		p.Completed = &sf.completed
	}
	values, err := fieldValues(sf.fields, defs)
	if err != nil {
		return p, err
	}
	p.CustomFieldValues = values
	return p, nil
}

func newMoveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "move <scene> <column>",
		Short: "Move a scene to another board column",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags, true)
			if err != nil {
				return err
			}
			defer a.close()

			scene, err := a.resolveScene(args[0])
			if err != nil {
				return err
			}
			column := columnName(a.engine.Columns(), args[1])
			moved, err := a.engine.DragEnd(ctxOf(cmd), scene.ID, kanban.OnColumn(column))
			if err != nil {
				return err
			}
			if !moved {
				return fmt.Errorf("%w: %q", types.ErrUnknownColumn, args[1])
			}
			if a.json {
				return writeJSON(cmd, map[string]string{"id": scene.ID, "status": column})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved scene %s to %s\n", scene.SceneNumber, column)
			return nil
		},
	}
}

// columnName returns the board's spelling of name, matched without regard
// to case. Unknown names are returned unchanged.
func columnName(columns []string, name string) string {
	name = strings.TrimSpace(name)
	for _, c := range columns {
		if strings.EqualFold(c, name) {
			return c
		}
	}
	return name
}

func newDuplicateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <scene>",
		Short: "Copy a scene into a new unscheduled scene",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags, true)
			if err != nil {
				return err
			}
			defer a.close()

			scene, err := a.resolveScene(args[0])
			if err != nil {
				return err
			}
			id, err := a.engine.Duplicate(ctxOf(cmd), scene.ID)
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
}

func newDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <scene>",
		Short: "Delete a scene",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags, true)
			if err != nil {
				return err
			}
			defer a.close()

			scene, err := a.resolveScene(args[0])
			if err != nil {
				return err
			}
			if err := a.engine.Delete(ctxOf(cmd), scene.ID); err != nil {
				return err
			}
			if a.json {
				return writeJSON(cmd, map[string]string{"id": scene.ID})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted scene %s\n", scene.SceneNumber)
			return nil
		},
	}
}

func newAnalyzeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <scene>",
		Short: "Analyze a scene with the LLM",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, flags, true)
			if err != nil {
				return err
			}
			defer a.close()

			scene, err := a.resolveScene(args[0])
			if err != nil {
				return err
			}
			ok, err := a.engine.Analyze(ctxOf(cmd), scene.ID)
			if err != nil {
				return err
			}
			updated, _ := a.engine.Scene(scene.ID)
			if a.json {
				return writeJSON(cmd, map[string]any{"analyzed": ok, "scene": updated})
			}
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintf(out, "No analysis produced for scene %s\n", scene.SceneNumber)
				return nil
			}
			an := updated.Analysis
			fmt.Fprintln(out, renderTable(
				[]string{"Title", "Complexity", "Time", "Cast"},
				[][]string{{an.Title, string(an.Complexity), string(an.TimeOfDay), strings.Join(an.Cast, ", ")}},
				nil,
			))
			if an.Summary != "" {
				fmt.Fprintln(out, an.Summary)
			}
			return nil
		},
	}
}
