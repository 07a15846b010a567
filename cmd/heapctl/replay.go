package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/trace"
)

var replayKeepLive bool

func init() {
	cmd := newReplayCmd()
	cmd.Flags().BoolVar(&replayKeepLive, "keep-live", false, "Leave allocations live at the end of the trace")
	rootCmd.AddCommand(cmd)
}

func newReplayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replay <trace.yaml>",
		Short: "Replay a trace and verify every payload",
		Long: `The replay command runs a YAML trace against a fresh allocator.
Every payload is filled with a pattern and verified before it is resized or
released. Rejected operations are counted; corrupted payloads and broken
directory invariants fail the command. Use "-" to read the trace from stdin.

Example:
  heapctl replay workload.yaml
  heapctl replay workload.yaml --os --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(args)
		},
	}
}

func loadTrace(path string) (*trace.Trace, error) {
	if path != "-" {
		return trace.Load(path)
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return trace.Parse(data)
}

func runReplay(args []string) (err error) {
	t, err := loadTrace(args[0])
	if err != nil {
		return err
	}
	printVerbose("Replaying %s: %d ops over %d slots\n", args[0], len(t.Ops), t.Slots)

	bf, cleanup, err := newAllocator()
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, cleanup()) }()

	res, err := trace.Replay(bf, t, &trace.Options{Logger: logger, KeepLive: replayKeepLive})
	if err != nil {
		return err
	}
	if err := bf.Check(); err != nil {
		return fmt.Errorf("after replay: %w", err)
	}

	r := &Report{Trace: t.Name}
	r.add(res)
	r.Usage = bf.Usage()
	r.Stats = bf.Stats()
	return printReport(r)
}
