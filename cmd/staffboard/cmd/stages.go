package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/staffboard/internal/kanban"
	"github.com/hugo-lorenzo-mato/staffboard/internal/tui"
)

func newStagesCmd(o *rootOptions) *cobra.Command {
	stagesCmd := &cobra.Command{
		Use:   "stages",
		Short: "Manage the stage catalogue",
	}
	stagesCmd.AddCommand(newStagesListCmd(o), newStagesImportCmd(o))
	return stagesCmd
}

func newStagesListCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stages in column order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withApp(cmd, func(a *app) error {
				stages, err := a.stages.List(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(stages))
				for _, st := range stages {
					rows = append(rows, []string{
						string(st.ID),
						st.Name,
						st.ProcessType,
						a.styles.Pipeline(st.ResolvedPipeline()),
						strconv.Itoa(st.Position),
					})
				}
				a.printf("%s", tui.Table(a.renderer,
					[]string{"ID", "NAME", "PROCESS TYPE", "PIPELINE", "POS"}, rows))
				return nil
			})
		},
	}
}

func newStagesImportCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Create stages from a YAML seed file",
		Long: `Create stages from a YAML seed file. Stages whose id already exists are
skipped, so importing the same file twice is safe.

  stages:
    - id: novo
      name: Novo colaborador
      process_type: "🟢 Ligamento"
    - id: desligado
      name: Desligado
      process_type: "🔴 Desligamento"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening stage file: %w", err)
			}
			defer f.Close()

			inputs, err := kanban.ParseStageFile(f)
			if err != nil {
				return err
			}
			return o.withApp(cmd, func(a *app) error {
				res, err := a.stages.Import(cmd.Context(), inputs)
				if res != nil {
					for _, st := range res.Created {
						a.printf("%s %s (%s)\n", a.styles.Success.Render("created"), st.Name, st.ID)
					}
					for _, id := range res.Skipped {
						a.printf("%s %s\n", a.styles.Subtle.Render("exists "), id)
					}
				}
				return err
			})
		},
	}
}
