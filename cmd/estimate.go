package cmd

import (
	"fmt"
	"time"

	"github.com/encodeous/dvhop/core"
	"github.com/encodeous/dvhop/state"
	"github.com/spf13/cobra"
)

var (
	tablePath      string
	hopDistance    float64
	estimateMaxAge time.Duration
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimates a position from a saved distance table",
	Run: func(cmd *cobra.Command, args []string) {
		snap, err := readTableSnapshot(tablePath)
		if err != nil {
			panic(err)
		}
		hd := hopDistance
		if hd == 0 {
			hd = snap.HopDistance
		}
		if hd == 0 {
			hd = state.DefaultHopDistance
		}
		est, err := core.NewEstimator(hd)
		if err != nil {
			panic(err)
		}

		now := time.Now()
		t := snap.Table(now)
		out := cmd.OutOrStdout()
		fmt.Fprint(out, t.String())

		pos, triple, err := core.EstimateFromTable(est, t, now, estimateMaxAge)
		if err != nil {
			fmt.Fprintf(out, "Estimate withheld: %v\n", err)
			return
		}
		fmt.Fprintf(out, "Estimated position %s using %.3f m/hop\n", pos, est.HopDistance())
		for _, rec := range triple {
			fmt.Fprintf(out, " - %s\n", rec)
		}
	},
	GroupID: "tools",
}

func init() {
	rootCmd.AddCommand(estimateCmd)

	estimateCmd.Flags().StringVarP(&tablePath, "table", "t", "table.yaml", "Path to a distance table snapshot")
	estimateCmd.Flags().Float64Var(&hopDistance, "hop-distance", 0, "Metres per hop, overrides the snapshot")
	estimateCmd.Flags().DurationVar(&estimateMaxAge, "max-age", 0, "Ignore beacons older than this, 0 keeps every beacon")
}
