package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tjfontaine/mindspark/internal/core/domain"
)

func newHistoryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List your recent topics, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.consumer()
			if err != nil {
				return err
			}
			if err := c.RefreshHistory(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			entries := c.History()
			if len(entries) == 0 {
				fmt.Fprintln(out, styles.Faint.Render("no history yet"))
				return nil
			}
			for i, e := range entries {
				fmt.Fprintf(out, "%s%s  %s\n",
					styles.Index.Render(strconv.Itoa(i+1)),
					e.Topic,
					styles.Faint.Render(e.CreatedAt.Local().Format(time.DateTime)))
			}
			return nil
		},
	}
}

func newShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <n|id>",
		Short: "Show a history entry by its position in 'spark history' or its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.consumer()
			if err != nil {
				return err
			}
			if err := c.RefreshHistory(cmd.Context()); err != nil {
				return err
			}

			entry, err := findEntry(c.History(), args[0])
			if err != nil {
				return err
			}
			c.Select(entry)

			st := c.State()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styles.Title.Render(entry.Topic))
			fmt.Fprintln(out, styles.Image.Render(st.ArtifactReference))
			fmt.Fprintln(out)
			fmt.Fprintln(out, st.VisibleText)
			return nil
		},
	}
}

func findEntry(entries []domain.HistoryEntry, ref string) (domain.HistoryEntry, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(entries) {
			return domain.HistoryEntry{}, fmt.Errorf("no history entry %d (have %d)", n, len(entries))
		}
		return entries[n-1], nil
	}
	for _, e := range entries {
		if e.ID == ref {
			return e, nil
		}
	}
	return domain.HistoryEntry{}, fmt.Errorf("no history entry with id %q", ref)
}
