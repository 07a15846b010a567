package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/trace"
)

var (
	genOut    string
	genConfig trace.GenConfig
)

func init() {
	cmd := newGenCmd()
	cmd.Flags().StringVarP(&genOut, "output", "o", "", "Write the trace to a file instead of stdout")
	cmd.Flags().StringVar(&genConfig.Name, "name", "", "Trace name (default random-<seed>)")
	cmd.Flags().Int64Var(&genConfig.Seed, "seed", 1, "Random seed")
	cmd.Flags().IntVar(&genConfig.Ops, "ops", 1000, "Number of operations")
	cmd.Flags().IntVar(&genConfig.Slots, "slots", 64, "Number of allocation slots")
	cmd.Flags().IntVar(&genConfig.MaxSmall, "max-small", 1024, "Largest small request size")
	cmd.Flags().IntVar(&genConfig.PagePercent, "page-percent", 8, "Share of page-sized requests")
	cmd.Flags().IntVar(&genConfig.LargePercent, "large-percent", 2, "Share of requests above the mapping threshold")
	rootCmd.AddCommand(cmd)
}

func newGenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen",
		Short: "Generate a random workload trace",
		Long: `The gen command writes a seeded random workload as a YAML trace.
The same flags always produce the same trace.

Example:
  heapctl gen --seed 42 --ops 5000 -o workload.yaml
  heapctl gen --large-percent 20 | heapctl replay -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen()
		},
	}
}

func runGen() error {
	t := trace.Generate(genConfig)
	data, err := t.Marshal()
	if err != nil {
		return err
	}
	logger.Debug("trace generated", "name", t.Name, "ops", len(t.Ops), "slots", t.Slots)
	return writeTo(genOut, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
