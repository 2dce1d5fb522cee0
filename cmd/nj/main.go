package main

import (
	"fmt"
	"os"
	"time"

	"github.com/nj-engine/nj"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	warmupIters = 3
	benchIters  = 10
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		chunkSize int
		bench     bool
		tracePath string
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "nj <file.json> <query>",
		Short: "Run a streaming JSONPath query against a JSON document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
			if !verbose {
				log = log.Level(zerolog.WarnLevel)
			}

			doc, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading document: %w", err)
			}
			query := args[1]

			var tracer *nj.Tracer
			if tracePath != "" {
				tracer = nj.NewTracer()
			}

			opts := []nj.EngineOption{nj.WithLogger(log)}
			if chunkSize > 0 {
				opts = append(opts, nj.WithChunkSize(chunkSize))
			}
			if tracer != nil {
				opts = append(opts, nj.WithTracer(tracer))
			}

			engine, err := nj.NewEngine(opts...)
			if err != nil {
				return err
			}

			if bench {
				if err := runBench(engine, doc, query); err != nil {
					return err
				}
			} else {
				if err := runOnce(cmd, engine, doc, query); err != nil {
					return err
				}
			}

			if tracer != nil {
				f, err := os.Create(tracePath)
				if err != nil {
					return fmt.Errorf("creating trace file: %w", err)
				}
				defer f.Close()
				if err := tracer.Export(f); err != nil {
					return fmt.Errorf("exporting trace: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "chunk size in bytes (default: engine default, must be a power of two multiple of 64)")
	cmd.Flags().BoolVar(&bench, "bench", false, "run a warmup+measured benchmark instead of printing matches")
	cmd.Flags().StringVar(&tracePath, "trace", "", "write phase timings as CSV to this path")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

func runOnce(cmd *cobra.Command, engine *nj.Engine, doc []byte, query string) error {
	results, err := engine.Run(doc, query)
	if err != nil {
		return err
	}
	for i := 0; i < results.Count(); i++ {
		text, err := results.Extract(i, doc)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
	}
	return nil
}

// runBench mirrors the warmup/measure shape of a microbenchmark harness:
// a handful of untimed warmup runs to settle allocator and cache state,
// then a fixed number of timed runs averaged into a throughput figure.
func runBench(engine *nj.Engine, doc []byte, query string) error {
	for i := 0; i < warmupIters; i++ {
		if _, err := engine.Run(doc, query); err != nil {
			return err
		}
	}

	start := time.Now()
	var count int
	for i := 0; i < benchIters; i++ {
		results, err := engine.Run(doc, query)
		if err != nil {
			return err
		}
		count = results.Count()
	}
	elapsed := time.Since(start) / benchIters

	gigabytes := float64(len(doc)) / 1e9
	seconds := elapsed.Seconds()
	fmt.Printf("size: %.4f GB\n", gigabytes)
	fmt.Printf("avg runtime: %s\n", elapsed)
	if seconds > 0 {
		fmt.Printf("GB/s: %.4f\n", gigabytes/seconds)
	}
	fmt.Printf("matches: %d\n", count)
	return nil
}
