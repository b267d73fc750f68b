package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/slate/internal/intake"
	"github.com/mesh-intelligence/slate/internal/kanban"
)

func newParseCmd(flags *rootFlags) *cobra.Command {
	var (
		useAI    bool
		maxChars int
	)
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Split a screenplay into scenes and add them to the board",
		Long: "Read a plain-text screenplay (or - for stdin), split it on INT./EXT. headings\n" +
			"and store every scene as unscheduled. With --ai the whole script is sent to\n" +
			"the configured LLM, which also analyzes each scene.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readScript(cmd, args[0])
			if err != nil {
				return err
			}
			a, err := openApp(cmd, flags, false)
			if err != nil {
				return err
			}
			defer a.close()

			scenes, err := a.store.Scenes()
			if err != nil {
				return err
			}
			projects, err := a.store.Projects()
			if err != nil {
				return err
			}
			ctx := ctxOf(cmd)
			var ids []string
			if useAI {
				if a.analyzer == nil {
					return fmt.Errorf("parse --ai: %w (set llm.api_key or SLATE_LLM_API_KEY)", kanban.ErrNoAnalyzer)
				}
				if maxChars <= 0 {
					maxChars = a.settings.MaxChars
				}
				ids, err = intake.Analyzed(ctx, a.analyzer, scenes, projects, a.settings.Project, text, maxChars)
			} else {
				ids, err = intake.Segmented(ctx, scenes, projects, a.settings.Project, text)
			}
			if err != nil {
				return err
			}

			if a.json {
				return writeJSON(cmd, map[string]any{"project": a.settings.Project, "ids": ids})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d scenes to %s\n", len(ids), a.settings.Project)
			return nil
		},
	}
	cmd.Flags().BoolVar(&useAI, "ai", false, "parse and analyze with the LLM")
	cmd.Flags().IntVar(&maxChars, "max-chars", 0, "characters of script sent to the LLM (default from config)")
	return cmd
}

func readScript(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		if os.IsNotExist(err) {
			return "", userErr(err)
		}
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(data), nil
}
