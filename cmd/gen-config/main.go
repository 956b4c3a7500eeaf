// Command gen-config translates a human-authored YAML router
// configuration into the fixed binary encoding the partition runtime
// actually reads, per spec §6: "the authoring format is translated at
// build time into the runtime binary encoding... the runtime itself
// only consumes the binary form."
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arinc653/router/pkg/config"
)

var cmd struct {
	In   string
	Out  string
	Max  limitsFlags
}

type limitsFlags struct {
	VirtualLinks      int
	DestinationsPerVL int
	Interfaces        int
	Ports             int
}

var rootCmd = &cobra.Command{
	Use:   "gen-config",
	Short: "Compile a YAML router configuration into the runtime binary format",
	RunE: func(_ *cobra.Command, _ []string) error {
		return run(cmd.In, cmd.Out, config.Limits{
			MaxVirtualLinks:      cmd.Max.VirtualLinks,
			MaxDestinationsPerVL: cmd.Max.DestinationsPerVL,
			MaxInterfaces:        cmd.Max.Interfaces,
			MaxPorts:             cmd.Max.Ports,
		})
	},
}

func init() {
	defaults := config.DefaultLimits()
	rootCmd.Flags().StringVarP(&cmd.In, "in", "i", "", "Path to the authoring YAML configuration (required)")
	rootCmd.Flags().StringVarP(&cmd.Out, "out", "o", "", "Path to write the compiled binary configuration (required)")
	rootCmd.Flags().IntVar(&cmd.Max.VirtualLinks, "max-virtual-links", defaults.MaxVirtualLinks, "Bound on the number of virtual links")
	rootCmd.Flags().IntVar(&cmd.Max.DestinationsPerVL, "max-destinations-per-vl", defaults.MaxDestinationsPerVL, "Bound on destinations per virtual link")
	rootCmd.Flags().IntVar(&cmd.Max.Interfaces, "max-interfaces", defaults.MaxInterfaces, "Bound on the number of network interfaces")
	rootCmd.Flags().IntVar(&cmd.Max.Ports, "max-ports", defaults.MaxPorts, "Bound on the number of hypervisor ports")
	rootCmd.MarkFlagRequired("in")
	rootCmd.MarkFlagRequired("out")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(in, out string, limits config.Limits) error {
	authoring, err := config.LoadAuthoringConfig(in)
	if err != nil {
		return fmt.Errorf("failed to load authoring config: %w", err)
	}

	cfg, err := authoring.Compile(limits)
	if err != nil {
		return fmt.Errorf("failed to compile configuration: %w", err)
	}

	if err := os.WriteFile(out, config.Encode(cfg), 0o644); err != nil {
		return fmt.Errorf("failed to write compiled configuration: %w", err)
	}
	return nil
}
