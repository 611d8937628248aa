package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ruimo/klavier-core-sub000/chunk"
	"github.com/ruimo/klavier-core-sub000/file"
	"github.com/ruimo/klavier-core-sub000/model"
	"github.com/ruimo/klavier-core-sub000/repeat"
)

var (
	renderOptimize bool
	renderJSON     bool
)

func init() {
	renderCmd.Flags().BoolVar(&renderOptimize, "optimize", false, "merge chunks that continue each other")
	renderCmd.Flags().BoolVar(&renderJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render <score>",
	Short: "Prints the playback order of a score",
	Long:  `Prints the chunks of a score in playback order, each with the accumulated tick it starts at.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		score, err := file.LoadScore(args[0])
		if err != nil {
			return err
		}
		perf, err := Render(score)
		if err != nil {
			return err
		}
		return printPerformance(cmd.OutOrStdout(), perf, renderOptimize, renderJSON)
	},
}

// Render turns a score into a performance. Warnings are logged and kept on
// the performance.
func Render(score model.Score) (model.Performance, error) {
	if err := score.Normalize(); err != nil {
		return model.Performance{}, err
	}
	region, warnings, err := repeat.RenderRegion(score.Rhythm, score.Bars)
	if err != nil {
		return model.Performance{}, err
	}
	perf := model.Performance{Name: score.Name, Chunks: region.ToChunks()}
	for _, w := range warnings {
		log.Warn(w.String(), "score", score.Name)
		perf.Warnings = append(perf.Warnings, w.String())
	}
	return perf, nil
}

func printPerformance(w io.Writer, perf model.Performance, optimize, asJSON bool) error {
	chunks := perf.Chunks
	if optimize {
		chunks = chunk.Optimize(chunks)
	}
	if asJSON {
		warnings := perf.Warnings
		if warnings == nil {
			warnings = []string{}
		}
		return json.NewEncoder(w).Encode(model.RenderResponse{ID: perf.ID, Chunks: chunks, Warnings: warnings})
	}
	for _, e := range chunk.ByAccumTick(chunks) {
		if _, err := fmt.Fprintf(w, "%d\t%v\n", e.AccumTick, e.Chunk); err != nil {
			return err
		}
	}
	return nil
}
