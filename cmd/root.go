package cmd

import (
	"log"
	"log/slog"
	"net/http"
	"os"

	_ "github.com/encodeous/dvhop/perf"
	"github.com/spf13/cobra"
)

var (
	verbose   bool
	debugAddr string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dvhop",
	Short: "DV-Hop Localization CLI",
	Long: `dvhop estimates the positions of nodes in an ad-hoc network from hop counts to a few beacons.
Beacons know their position and flood it through the network, every other node counts hops and multilaterates.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugAddr != "" {
			go func() {
				log.Println(http.ListenAndServe(debugAddr, nil))
			}()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func logLevel() slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func init() {
	rootCmd.AddGroup(&cobra.Group{
		ID:    "sim",
		Title: "Simulation",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "tools",
		Title: "Tools",
	})
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&debugAddr, "debug", "", "serve expvar and metrics on this address, e.g. 127.0.0.1:6060")
}
