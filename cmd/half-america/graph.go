package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stevenfazzio/half-america/attributes"
)

type graphReport struct {
	Contiguity      string             `yaml:"contiguity"`
	Components      int                `yaml:"components"`
	IslandsAttached int                `yaml:"islands_attached"`
	Graph           attributes.Summary `yaml:"graph"`
}

func newGraphCmd(a *app) *cobra.Command {
	var in inputFlags
	cmd := &cobra.Command{
		Use:     "graph",
		Short:   "Build the tract graph and print its statistics as YAML",
		Args:    cobra.NoArgs,
		PreRunE: a.preRun,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := in.validate(); err != nil {
				return err
			}
			cfg, log, err := a.setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			g, err := in.load(a, cfg, log)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(graphReport{
				Contiguity:      cfg.Graph.Contiguity,
				Components:      g.components,
				IslandsAttached: g.islandsAttached,
				Graph:           g.attrs.Summary(),
			})
		},
	}
	in.register(cmd.Flags())
	return cmd
}
