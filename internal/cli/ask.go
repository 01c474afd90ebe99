package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tjfontaine/mindspark/internal/client"
	"github.com/tjfontaine/mindspark/internal/core/domain"
)

func newAskCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <topic>",
		Short: "Stream an explanation of a topic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.Join(args, " ")
			out := cmd.OutOrStdout()

			r := &streamRenderer{out: out}
			c, err := opts.consumer(client.WithRenderHook(r.render))
			if err != nil {
				return err
			}
			defer c.Close()

			fmt.Fprintln(out, styles.Title.Render(topic))
			_, err = c.Submit(cmd.Context(), topic)
			fmt.Fprintln(out)
			return err
		},
	}
}

// streamRenderer prints the image reference once and then the newly
// visible suffix on every render.
type streamRenderer struct {
	out       io.Writer
	printed   int
	showedImg bool
}

func (r *streamRenderer) render(st domain.ClientStreamState) {
	if !r.showedImg && st.ArtifactReference != "" {
		fmt.Fprintln(r.out, styles.Image.Render(st.ArtifactReference))
		fmt.Fprintln(r.out)
		r.showedImg = true
	}
	if len(st.VisibleText) > r.printed {
		io.WriteString(r.out, st.VisibleText[r.printed:])
		r.printed = len(st.VisibleText)
	}
}
