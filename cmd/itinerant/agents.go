package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/go-go-golems/itinerant/pkg/travel"
)

func newAgentsCommand() *cobra.Command {
	var multiAgent bool
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Show the planning mode and its agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			assistant, err := travel.New(s, travel.WithMultiAgent(multiAgent))
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(assistant.Info()); err != nil {
				return errors.Wrap(err, "encode agent info")
			}
			return enc.Close()
		},
	}
	cmd.Flags().BoolVar(&multiAgent, "multi-agent", true, "Describe the multi-agent mode")
	return cmd
}
