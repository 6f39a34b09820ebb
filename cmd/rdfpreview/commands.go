package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/rdfpreview/internal/cache"
	"github.com/aleksaelezovic/rdfpreview/internal/server"
	"github.com/aleksaelezovic/rdfpreview/pkg/rdf"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP preview server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			opts := []server.Option{server.WithLogger(a.component("server"))}
			if a.cfg.Cache.Enabled {
				c, err := cache.Open(a.cfg.Cache.Dir, a.cfg.Cache.MaxTTL)
				if err != nil {
					return err
				}
				defer c.Close()
				opts = append(opts, server.WithCache(c))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.NewServer(a.cfg, opts...).Start(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported RDF formats",
		Args:  cobra.NoArgs,
		// no configuration needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FORMAT\tMEDIA TYPE\tEXTENSIONS")
			for _, mt := range rdf.SupportedMediaTypes() {
				f, _ := rdf.FormatForMediaType(mt)
				fmt.Fprintf(tw, "%s\t%s\t%s\n", f, mt, strings.Join(f.Extensions(), " "))
			}
			return tw.Flush()
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
