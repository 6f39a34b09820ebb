package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/rdfpreview/internal/config"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	GitCommit = "unknown"
)

// app is the state shared by all subcommands once flags are parsed
type app struct {
	cfgFile string
	verbose bool
	logger  *logrus.Logger
	cfg     *config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "rdfpreview",
		Short: "Render RDF documents as grouped, linked Turtle-style previews",
		Long: `rdfpreview reads RDF in Turtle, TriG, N-Triples, N-Quads, N3, RDF/XML or
JSON-LD and renders it grouped by subject and predicate, as text or HTML.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: .rdfpreview/config.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	root.SetVersionTemplate("rdfpreview {{.Version}}\nGit commit: " + GitCommit + "\n")

	root.AddCommand(newRenderCmd(a))
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newFormatsCmd())
	root.AddCommand(newConfigCmd(a))
	return root
}

// init loads the configuration and builds the logger
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = logrus.New()
	a.logger.SetOutput(cmd.ErrOrStderr())
	if cfg.Log.Format == "json" {
		a.logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		a.logger.WithError(err).Warn("Invalid log level, using info")
		level = logrus.InfoLevel
	}
	if a.verbose {
		level = logrus.DebugLevel
	}
	a.logger.SetLevel(level)
	return nil
}

func (a *app) component(name string) *logrus.Entry {
	return a.logger.WithField("component", name)
}
