// Package cli implements the spark command line client.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tjfontaine/mindspark/internal/client"
)

const defaultServer = "http://localhost:5001"

type options struct {
	server   string
	token    string
	interval time.Duration
}

// NewRootCmd builds the spark command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "spark",
		Short: "Ask a Mind Spark server to explain a topic",
		Long: `spark - stream short illustrated explanations from a Mind Spark server.

The server URL and bearer token default to $SPARK_SERVER and $SPARK_TOKEN.

Examples:
  spark ask black holes
  spark history
  spark show 2`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.server, "server", "s", envOr("SPARK_SERVER", defaultServer), "relay server URL")
	root.PersistentFlags().StringVarP(&opts.token, "token", "t", os.Getenv("SPARK_TOKEN"), "bearer token")
	root.PersistentFlags().DurationVar(&opts.interval, "interval", client.DefaultRenderInterval, "render interval")

	root.AddCommand(newAskCmd(opts), newHistoryCmd(opts), newShowCmd(opts))
	return root
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (o *options) consumer(opts ...client.Option) (*client.Consumer, error) {
	if o.token == "" {
		return nil, fmt.Errorf("a bearer token is required, use --token or SPARK_TOKEN")
	}
	return client.NewConsumer(o.server, append([]client.Option{
		client.WithToken(o.token),
		client.WithRenderInterval(o.interval),
	}, opts...)...), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
