package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/slate/pkg/types"
)

func newProjectCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage registered projects",
		Long: "Register, list, rename and delete projects. A project is selected for other\n" +
			"commands with --project; parse registers it automatically and keeps the script.",
	}
	cmd.AddCommand(
		newProjectAddCmd(flags),
		newProjectListCmd(flags),
		newProjectShowCmd(flags),
		newProjectRenameCmd(flags),
		newProjectDeleteCmd(flags),
	)
	return cmd
}

// withProjects runs fn against the attached store's project registry.
func withProjects(cmd *cobra.Command, flags *rootFlags, fn func(a *app, projects types.ProjectTable) error) error {
	a, err := openApp(cmd, flags, false)
	if err != nil {
		return err
	}
	defer a.close()
	projects, err := a.store.Projects()
	if err != nil {
		return err
	}
	return fn(a, projects)
}

func newProjectAddCmd(flags *rootFlags) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Register a project",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProjects(cmd, flags, func(a *app, projects types.ProjectTable) error {
				created, err := projects.Create(ctxOf(cmd), id, args[0])
				if err != nil {
					return err
				}
				if a.json {
					return writeJSON(cmd, map[string]string{"id": created})
				}
				fmt.Fprintln(cmd.OutOrStdout(), created)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "project ID used with --project (default: generated)")
	return cmd
}

func newProjectListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered projects",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProjects(cmd, flags, func(a *app, projects types.ProjectTable) error {
				list, err := projects.List(ctxOf(cmd))
				if err != nil {
					return err
				}
				if a.json {
					return writeJSON(cmd, list)
				}
				rows := make([][]string, 0, len(list))
				for _, p := range list {
					rows = append(rows, []string{p.ID, p.Title, p.UpdatedAt.Local().Format("2006-01-02 15:04")})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "Title", "Updated"}, rows, nil))
				return nil
			})
		},
	}
}

func newProjectShowCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project>",
		Short: "Print a project's title and stored script",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProjects(cmd, flags, func(a *app, projects types.ProjectTable) error {
				p, err := resolveProject(ctxOf(cmd), projects, args[0])
				if err != nil {
					return err
				}
				if a.json {
					return writeJSON(cmd, p)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (%s)\n", heading(p.Title, shouldColorize(out)), p.ID)
				if p.Content != "" {
					fmt.Fprintln(out)
					fmt.Fprintln(out, strings.TrimRight(p.Content, "\n"))
				}
				return nil
			})
		},
	}
}

func newProjectRenameCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <project> <title>",
		Short: "Change a project's title",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProjects(cmd, flags, func(a *app, projects types.ProjectTable) error {
				ctx := ctxOf(cmd)
				p, err := resolveProject(ctx, projects, args[0])
				if err != nil {
					return err
				}
				if err := projects.Rename(ctx, p.ID, args[1]); err != nil {
					return err
				}
				if a.json {
					return writeJSON(cmd, map[string]string{"id": p.ID, "title": strings.TrimSpace(args[1])})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", p.ID, strings.TrimSpace(args[1]))
				return nil
			})
		},
	}
}

func newProjectDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project>",
		Short: "Delete a project with all its scenes, fields and columns",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProjects(cmd, flags, func(a *app, projects types.ProjectTable) error {
				ctx := ctxOf(cmd)
				p, err := resolveProject(ctx, projects, args[0])
				if err != nil {
					return err
				}
				if err := projects.Delete(ctx, p.ID); err != nil {
					return err
				}
				if a.json {
					return writeJSON(cmd, map[string]string{"id": p.ID})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", p.ID)
				return nil
			})
		},
	}
}

// resolveProject finds a project by ID, unique ID prefix or title and
// returns it with its script.
func resolveProject(ctx context.Context, projects types.ProjectTable, ref string) (*types.Project, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, userErrf("project is required")
	}
	if p, err := projects.Get(ctx, ref); err == nil {
		return p, nil
	}
	list, err := projects.List(ctx)
	if err != nil {
		return nil, err
	}
	var match []types.Project
	for _, p := range list {
		if strings.HasPrefix(p.ID, ref) || strings.EqualFold(p.Title, ref) {
			match = append(match, p)
		}
	}
	switch len(match) {
	case 0:
		return nil, fmt.Errorf("project %q: %w", ref, types.ErrNotFound)
	case 1:
		return projects.Get(ctx, match[0].ID)
	default:
		return nil, userErrf("project %q is ambiguous: %d projects match", ref, len(match))
	}
}
