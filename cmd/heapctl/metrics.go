package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/metrics"
	"github.com/joshuapare/heapkit/heap/trace"
)

var (
	metricsOut       string
	metricsNamespace string
	metricsConfig    trace.GenConfig
)

func init() {
	cmd := newMetricsCmd()
	cmd.Flags().StringVarP(&metricsOut, "output", "o", "", "Write metrics to a file instead of stdout")
	cmd.Flags().StringVar(&metricsNamespace, "namespace", "heapkit", "Metric name prefix")
	cmd.Flags().Int64Var(&metricsConfig.Seed, "seed", 1, "Seed of the generated workload")
	cmd.Flags().IntVar(&metricsConfig.Ops, "ops", 1000, "Operations in the generated workload")
	rootCmd.AddCommand(cmd)
}

func newMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics [trace.yaml]",
		Short: "Run a workload and print allocator metrics",
		Long: `The metrics command replays a trace, or a generated workload when no
trace is given, leaves its allocations live, and prints the allocator's
metrics in the Prometheus text exposition format.

Example:
  heapctl metrics workload.yaml
  heapctl metrics --seed 7 --ops 20000 -o heap.prom`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetrics(args)
		},
	}
}

func runMetrics(args []string) (err error) {
	var t *trace.Trace
	if len(args) == 1 {
		if t, err = loadTrace(args[0]); err != nil {
			return err
		}
	} else {
		t = trace.Generate(metricsConfig)
	}

	bf, cleanup, err := newAllocator()
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, cleanup()) }()

	if _, err := trace.Replay(bf, t, &trace.Options{Logger: logger, KeepLive: true}); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	if err := reg.Register(metrics.NewCollector(metricsNamespace, bf)); err != nil {
		return fmt.Errorf("register collector: %w", err)
	}
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	return writeTo(metricsOut, func(w io.Writer) error {
		enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
		for _, mf := range families {
			if err := enc.Encode(mf); err != nil {
				return err
			}
		}
		return nil
	})
}
