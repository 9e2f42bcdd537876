package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
)

var (
	runHandle string
	runOut    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run enrichment for a single handle",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		handle := normalizeHandle(runHandle)
		result, err := env.Pipeline.Run(ctx, handle)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("enrichment complete",
			zap.String("handle", handle),
			zap.Int("stages", len(result.Stages)),
			zap.Int("degraded", countDegraded(result.Stages)),
		)

		out := os.Stdout
		if runOut != "" {
			f, err := os.Create(runOut)
			if err != nil {
				return eris.Wrap(err, "create output file")
			}
			defer f.Close()
			out = f
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func normalizeHandle(h string) string {
	return strings.TrimPrefix(strings.TrimSpace(h), "@")
}

func countDegraded(stages []model.StageResult) int {
	n := 0
	for _, s := range stages {
		if s.Status == model.StageStatusDegraded {
			n++
		}
	}
	return n
}

func init() {
	runCmd.Flags().StringVar(&runHandle, "handle", "", "seed social handle (required)")
	runCmd.Flags().StringVar(&runOut, "out", "", "write result JSON to file instead of stdout")
	_ = runCmd.MarkFlagRequired("handle")
	rootCmd.AddCommand(runCmd)
}
