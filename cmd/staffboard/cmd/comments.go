package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/staffboard/internal/core"
	"github.com/hugo-lorenzo-mato/staffboard/internal/kanban"
	"github.com/hugo-lorenzo-mato/staffboard/internal/tui"
)

func newCommentsCmd(o *rootOptions) *cobra.Command {
	commentsCmd := &cobra.Command{
		Use:   "comments",
		Short: "Read and write card comments",
	}
	commentsCmd.AddCommand(newCommentsAddCmd(o), newCommentsListCmd(o))
	return commentsCmd
}

func newCommentsAddCmd(o *rootOptions) *cobra.Command {
	var author core.Actor
	addCmd := &cobra.Command{
		Use:     "add <card> <body>",
		Short:   "Add a comment to a card",
		Example: `  staffboard comments add 6f1c... "Contrato assinado" --author-id hr-1 --author-name Bia`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, func(a *app) error {
				ctx := cmd.Context()
				id := core.CardID(args[0])
				if _, err := a.cards.Get(ctx, id); err != nil {
					return err
				}
				who := author
				if who.ID == "" {
					who = a.cfg.Audit.SystemActor()
				}
				c, err := a.audit.WriteComment(ctx, kanban.CommentInput{
					CardID:     id,
					Body:       strings.Join(args[1:], " "),
					AuthorID:   who.ID,
					AuthorName: who.Name,
				})
				if err != nil {
					return err
				}
				a.printf("%s comment %s\n", a.styles.Success.Render("added"), c.ID)
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&author.ID, "author-id", "", "comment author (default: system actor)")
	addCmd.Flags().StringVar(&author.Name, "author-name", "", "display name of the author")
	return addCmd
}

func newCommentsListCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <card>",
		Short: "List a card's comments, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withApp(cmd, func(a *app) error {
				comments, err := a.audit.Comments(cmd.Context(), core.CardID(args[0]))
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(comments))
				for _, c := range comments {
					author := c.AuthorName
					if author == "" {
						author = c.AuthorID
					}
					if c.System {
						author = a.styles.Subtle.Render(author + " (system)")
					}
					rows = append(rows, []string{
						c.CreatedAt.Local().Format("2006-01-02 15:04"),
						author,
						c.Body,
					})
				}
				a.printf("%s", tui.Table(a.renderer, []string{"WHEN", "AUTHOR", "COMMENT"}, rows))
				return nil
			})
		},
	}
}
