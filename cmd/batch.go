package main

import (
	"bufio"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	batchFile  string
	batchLimit int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Batch enrich handles from a file",
	Long:  "Reads one handle per line (blank lines and # comments ignored) and runs enrichment concurrently.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		handles, err := readHandles(batchFile)
		if err != nil {
			return err
		}
		if batchLimit > 0 && len(handles) > batchLimit {
			handles = handles[:batchLimit]
		}
		if len(handles) == 0 {
			zap.L().Info("batch: no handles to process")
			return nil
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var succeeded, failed atomic.Int64

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Batch.MaxConcurrentHandles)
		for _, handle := range handles {
			g.Go(func() error {
				if _, err := env.Pipeline.Run(gCtx, handle); err != nil {
					failed.Add(1)
					zap.L().Error("batch: enrichment failed",
						zap.String("handle", handle), zap.Error(err))
					return nil
				}
				succeeded.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "batch wait")
		}

		zap.L().Info("batch complete",
			zap.Int64("succeeded", succeeded.Load()),
			zap.Int64("failed", failed.Load()),
		)
		return nil
	},
}

func readHandles(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open handles file")
	}
	defer f.Close()

	var handles []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		handles = append(handles, normalizeHandle(line))
	}
	return handles, eris.Wrap(scanner.Err(), "read handles file")
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "file with one handle per line (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of handles to process (0 = all)")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}
