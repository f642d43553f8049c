package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/encodeous/dvhop/core"
	"github.com/encodeous/dvhop/mock"
	"github.com/encodeous/dvhop/state"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	networkConfigPath string
	localizeTimeout   time.Duration
	localizeSettle    time.Duration
)

var localizeCmd = &cobra.Command{
	Use:   "localize",
	Short: "Runs every node of a network in-process and reports the estimated positions",
	Long: `This will start every node of the network config in this process, connected by an in-memory radio.
Once every non-beacon node has an estimate, the nodes are left to settle, then each node is inspected.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := readNetworkConfig(networkConfigPath)
		if err != nil {
			panic(err)
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = localize(ctx, cmd.OutOrStdout(), cfg)
		if err != nil {
			panic(err)
		}
	},
	GroupID: "sim",
}

func localize(ctx context.Context, out io.Writer, cfg *state.NetworkCfg) error {
	net, err := mock.NewNetworkFromConfig(cfg)
	if err != nil {
		return err
	}
	defer net.Stop()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	mu := sync.Mutex{}
	nodes := make(map[state.NodeId]*state.State)
	ready := make(chan struct{}, len(cfg.Nodes))

	for _, ncfg := range cfg.Nodes {
		g.Go(func() error {
			return core.Start(gctx, ncfg, logLevel(), core.Runtime{
				Transport: net,
				Ready: func(s *state.State) {
					mu.Lock()
					nodes[ncfg.Id] = s
					mu.Unlock()
					ready <- struct{}{}
				},
			})
		})
	}

	err = waitForEstimates(gctx, cfg, nodes, &mu, ready)
	if err == nil {
		select {
		case <-time.After(localizeSettle):
		case <-gctx.Done():
		}
		err = report(out, cfg, nodes)
	}
	cancel()
	gerr := g.Wait()
	if err != nil {
		return err
	}
	return gerr
}

func waitForEstimates(ctx context.Context, cfg *state.NetworkCfg, nodes map[state.NodeId]*state.State, mu *sync.Mutex, ready <-chan struct{}) error {
	deadline := time.After(localizeTimeout)
	for range cfg.Nodes {
		select {
		case <-ready:
		case <-ctx.Done():
			return context.Cause(ctx)
		case <-deadline:
			return errors.New("timed out waiting for nodes to start")
		}
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		pending := 0
		mu.Lock()
		for _, ncfg := range cfg.Nodes {
			if ncfg.IsBeacon() {
				continue
			}
			has, err := nodes[ncfg.Id].DispatchWait(func(s *state.State) (any, error) {
				return core.Get[*core.Localizer](s).LS.Estimate != nil, nil
			})
			if err != nil {
				mu.Unlock()
				return err
			}
			if !has.(bool) {
				pending++
			}
		}
		mu.Unlock()
		if pending == 0 {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return context.Cause(ctx)
		case <-deadline:
			return fmt.Errorf("timed out with %d nodes still unlocalized", pending)
		}
	}
}

func report(out io.Writer, cfg *state.NetworkCfg, nodes map[state.NodeId]*state.State) error {
	ids := make([]state.NodeId, 0, len(cfg.Nodes))
	for _, ncfg := range cfg.Nodes {
		ids = append(ids, ncfg.Id)
	}
	slices.Sort(ids)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "node\testimate\ttruth\terror")
	total, n := 0.0, 0
	for _, id := range ids {
		s := nodes[id]
		res, err := s.DispatchWait(func(s *state.State) (any, error) {
			return core.Inspect(s), nil
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(out, res.(string))

		if s.IsBeacon() {
			continue
		}
		est, err := s.DispatchWait(func(s *state.State) (any, error) {
			return core.Get[*core.Localizer](s).LS.Estimate, nil
		})
		if err != nil {
			return err
		}
		e := est.(*state.Estimate)
		if s.Truth == nil {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\n", id, e.Position)
			continue
		}
		dist := e.Position.DistanceTo(*s.Truth)
		total += dist
		n++
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.3f\n", id, e.Position, *s.Truth, dist)
	}
	if n > 0 {
		fmt.Fprintf(tw, "mean\t\t\t%.3f\n", total/float64(n))
	}
	return tw.Flush()
}

func init() {
	rootCmd.AddCommand(localizeCmd)

	localizeCmd.Flags().StringVarP(&networkConfigPath, "config", "c", "network.yaml", "Path to the network config")
	localizeCmd.Flags().DurationVar(&localizeTimeout, "timeout", 30*time.Second, "Give up if not every node has an estimate by then")
	localizeCmd.Flags().DurationVar(&localizeSettle, "settle", 2*state.AdvertiseDelay, "How long to keep running once every node has an estimate")
}
