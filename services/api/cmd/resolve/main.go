// Command resolve looks up the stream URL for one episode from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/anihub/internal/platform/logging"
	"github.com/example/anihub/services/api/internal/provider"
	"github.com/example/anihub/services/api/internal/provider/animesonline"
)

type options struct {
	episode   int
	baseURL   string
	userAgent string
	timeout   time.Duration
	rps       float64
	logLevel  string
}

func newRootCmd() *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:   "resolve <title>",
		Short: "Resolve the embedded player URL for an anime episode",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, strings.Join(args, " "))
		},
		SilenceUsage: true,
	}
	cmd.Flags().IntVarP(&o.episode, "episode", "e", 1, "episode number, starting at 1")
	cmd.Flags().StringVar(&o.baseURL, "base-url", animesonline.DefaultBaseURL, "provider site base URL")
	cmd.Flags().StringVar(&o.userAgent, "user-agent", animesonline.DefaultUserAgent, "User-Agent sent to the provider")
	cmd.Flags().DurationVar(&o.timeout, "timeout", animesonline.DefaultRequestTimeout, "per-request timeout")
	cmd.Flags().Float64Var(&o.rps, "rps", 0, "max requests per second to the provider (0 = unlimited)")
	cmd.Flags().StringVar(&o.logLevel, "log-level", "warn", "log level")
	return cmd
}

func (o options) run(cmd *cobra.Command, title string) error {
	log, err := logging.New(o.logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	p := animesonline.New(animesonline.Config{
		BaseURL:        o.baseURL,
		UserAgent:      o.userAgent,
		RequestTimeout: o.timeout,
	}, animesonline.WithLogger(log), animesonline.WithLimiter(provider.NewLimiter(o.rps)))

	start := time.Now()
	url, err := p.Resolve(cmd.Context(), provider.Request{AnimeTitle: title, Episode: o.episode})
	if err != nil {
		log.Debug("resolve failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return describeFailure(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), url)
	return nil
}

// describeFailure reports validation errors as-is and site failures by kind
// and stage.
func describeFailure(err error) error {
	if errors.Is(err, provider.ErrInvalidRequest) {
		return err
	}
	return fmt.Errorf("%s (stage %s)", provider.KindOf(err), provider.StageOf(err))
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
