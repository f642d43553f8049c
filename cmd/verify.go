package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Validates a network config",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := readNetworkConfig(networkConfigPath)
		if err != nil {
			panic(err)
		}
		edges, err := cfg.Edges()
		if err != nil {
			panic(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config is valid: %d nodes, %d beacons, %d links\n", len(cfg.Nodes), len(cfg.Beacons()), len(edges))
	},
	GroupID: "tools",
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVarP(&networkConfigPath, "config", "c", "network.yaml", "Path to the network config")
}
