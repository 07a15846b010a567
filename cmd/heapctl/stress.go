package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/trace"
)

var (
	stressRounds int
	stressTrim   bool
	stressConfig trace.GenConfig
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVar(&stressRounds, "rounds", 10, "Number of generated traces to replay")
	cmd.Flags().BoolVar(&stressTrim, "trim", true, "Trim the heap after every round")
	cmd.Flags().Int64Var(&stressConfig.Seed, "seed", 1, "Seed of the first round; each round adds one")
	cmd.Flags().IntVar(&stressConfig.Ops, "ops", 1000, "Operations per round")
	cmd.Flags().IntVar(&stressConfig.Slots, "slots", 64, "Allocation slots per round")
	cmd.Flags().IntVar(&stressConfig.LargePercent, "large-percent", 2, "Share of requests above the mapping threshold")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stress",
		Short: "Replay generated workloads against one allocator",
		Long: `The stress command generates one trace per round and replays them
all against the same allocator, checking the directory invariants and that
no mapped region leaks after every round.

Example:
  heapctl stress --rounds 50 --ops 10000
  heapctl stress --os --large-percent 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
}

func runStress() (err error) {
	bf, cleanup, err := newAllocator()
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, cleanup()) }()

	r := &Report{Rounds: stressRounds}
	for round := range stressRounds {
		cfg := stressConfig
		cfg.Seed += int64(round)
		t := trace.Generate(cfg)

		res, err := trace.Replay(bf, t, &trace.Options{Logger: logger})
		if err != nil {
			return fmt.Errorf("round %d (seed %d): %w", round, cfg.Seed, err)
		}
		if err := bf.Check(); err != nil {
			return fmt.Errorf("round %d (seed %d): %w", round, cfg.Seed, err)
		}
		if n := bf.Usage().MappedRegions; n != 0 {
			return fmt.Errorf("round %d (seed %d): %d mapped regions leaked", round, cfg.Seed, n)
		}
		r.add(res)

		if stressTrim {
			n, err := bf.Trim()
			if err != nil {
				return fmt.Errorf("round %d: %w", round, err)
			}
			r.Trimmed += n
		}
		printVerbose("Round %d: seed %d, %d ops, peak %s\n", round, cfg.Seed, res.Ops, formatBytes(int64(res.PeakLiveBytes)))
	}

	r.Usage = bf.Usage()
	r.Stats = bf.Stats()
	return printReport(r)
}
