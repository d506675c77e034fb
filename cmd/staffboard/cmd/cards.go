package cmd

import (
	"context"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
	"github.com/hugo-lorenzo-mato/staffboard/internal/kanban"
	"github.com/hugo-lorenzo-mato/staffboard/internal/tui"
)

func newCardsCmd(o *rootOptions) *cobra.Command {
	cardsCmd := &cobra.Command{
		Use:   "cards",
		Short: "List, create and move cards",
	}
	cardsCmd.AddCommand(
		newCardsListCmd(o),
		newCardsCreateCmd(o),
		newCardsMoveCmd(o),
		newCardsHistoryCmd(o),
	)
	return cardsCmd
}

func newCardsListCmd(o *rootOptions) *cobra.Command {
	var process string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List cards, optionally for one process",
		Example: `  staffboard cards list
  staffboard cards list --process entrada`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pipeline, err := core.ParsePipeline(process)
			if err != nil {
				return err
			}
			return o.withApp(cmd, func(a *app) error {
				return listCards(cmd.Context(), a, pipeline)
			})
		},
	}
	listCmd.Flags().StringVar(&process, "process", "", "entrada|saida (or entry|exit)")
	return listCmd
}

func listCards(ctx context.Context, a *app, pipeline core.Pipeline) error {
	cards, err := a.cards.List(ctx, pipeline)
	if err != nil {
		return err
	}
	names, err := stageNames(ctx, a)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(cards))
	for _, c := range cards {
		subject := "-"
		if c.SubjectID != nil {
			subject = *c.SubjectID
		}
		rows = append(rows, []string{
			string(c.ID),
			subject,
			names.of(c.StageID),
			strconv.Itoa(c.Position),
			a.styles.Priority(c.Priority),
			a.styles.Check(c.HasEquipment) + " " + a.styles.Check(c.HasAccess) + " " + a.styles.Check(c.HasDocuments),
			c.Notes,
		})
	}
	a.printf("%s", tui.Table(a.renderer,
		[]string{"ID", "SUBJECT", "STAGE", "POS", "PRIORITY", "EQ AC DO", "NOTES"}, rows))
	a.printf("%s\n", a.styles.Subtle.Render(strconv.Itoa(len(cards))+" card(s)"))
	return nil
}

func newCardsCreateCmd(o *rootOptions) *cobra.Command {
	var in kanban.CardInput
	var subject, responsible string
	createCmd := &cobra.Command{
		Use:     "create <stage>",
		Short:   "Add a card to a stage",
		Example: `  staffboard cards create "novo colaborador" --subject emp-42 --priority alta`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if subject != "" {
				in.SubjectID = &subject
			}
			if responsible != "" {
				in.ResponsibleID = &responsible
			}
			return o.withApp(cmd, func(a *app) error {
				ctx := cmd.Context()
				st, err := a.stages.Resolve(ctx, args[0])
				if err != nil {
					return err
				}
				in.StageID = st.ID
				card, err := a.cards.Create(ctx, in)
				if err != nil {
					return err
				}
				a.printf("%s card %s in %s at position %d\n",
					a.styles.Success.Render("created"), card.ID, st.Name, card.Position)
				return nil
			})
		},
	}
	createCmd.Flags().StringVar(&subject, "subject", "", "employee id the card tracks")
	createCmd.Flags().StringVar(&in.Priority, "priority", "", "low|normal|high (or baixa|media|alta)")
	createCmd.Flags().StringVar(&in.Notes, "notes", "", "free-text notes")
	createCmd.Flags().StringVar(&responsible, "responsible", "", "responsible HR user id")
	return createCmd
}

func newCardsMoveCmd(o *rootOptions) *cobra.Command {
	var position int
	var actor core.Actor
	moveCmd := &cobra.Command{
		Use:   "move <card> <stage>",
		Short: "Move a card to a stage",
		Long: `Move a card to a stage. The stage may be given by id or by name; names
match ignoring case and accents, and otherwise by the closest fuzzy match.

A position past the end of the stage places the card last.`,
		Example: `  staffboard cards move 6f1c... documentacao
  staffboard cards move 6f1c... "docum" --position 0`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, func(a *app) error {
				ctx := cmd.Context()
				st, err := a.stages.Resolve(ctx, args[1])
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed("position") {
					position = math.MaxInt
				}
				placed, err := a.mover.Move(ctx, kanban.MoveRequest{
					CardID:         core.CardID(args[0]),
					TargetStage:    st.ID,
					TargetPosition: position,
					ActorID:        actor.ID,
					ActorName:      actor.Name,
				})
				if err != nil {
					return err
				}
				a.logger.WithCard(string(placed.CardID)).Debug("card moved",
					"stage_id", st.ID, "position", placed.Position)
				a.printf("%s card %s to %s at position %d\n",
					a.styles.Success.Render("moved"), placed.CardID, st.Name, placed.Position)
				return nil
			})
		},
	}
	moveCmd.Flags().IntVar(&position, "position", 0, "target position (default: last)")
	moveCmd.Flags().StringVar(&actor.ID, "actor-id", "", "who moved the card (default: system actor)")
	moveCmd.Flags().StringVar(&actor.Name, "actor-name", "", "display name of the actor")
	return moveCmd
}

func newCardsHistoryCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <card>",
		Short: "Show a card's stage transitions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, func(a *app) error {
				ctx := cmd.Context()
				history, err := a.audit.History(ctx, core.CardID(args[0]))
				if err != nil {
					return err
				}
				names, err := stageNames(ctx, a)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(history))
				for _, h := range history {
					rows = append(rows, []string{
						h.CreatedAt.Local().Format("2006-01-02 15:04"),
						names.of(h.FromStageID),
						names.of(h.ToStageID),
						h.MovedBy,
					})
				}
				a.printf("%s", tui.Table(a.renderer, []string{"WHEN", "FROM", "TO", "BY"}, rows))
				return nil
			})
		},
	}
}

type stageNameIndex map[core.StageID]string

func (n stageNameIndex) of(id core.StageID) string {
	if name, ok := n[id]; ok && name != "" {
		return name
	}
	return string(id)
}

func stageNames(ctx context.Context, a *app) (stageNameIndex, error) {
	stages, err := a.stages.List(ctx)
	if err != nil {
		return nil, err
	}
	idx := make(stageNameIndex, len(stages))
	for _, st := range stages {
		idx[st.ID] = st.Name
	}
	return idx, nil
}
