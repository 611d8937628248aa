package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ruimo/klavier-core-sub000/bucket"
	"github.com/ruimo/klavier-core-sub000/constants"
	"github.com/ruimo/klavier-core-sub000/model"
	"github.com/ruimo/klavier-core-sub000/util"
)

func init() {
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarizes the bucket",
	Long:  `Summarizes the bucket`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := analyzeBucket(bucket.New(constants.GetIndexDir()))
		if err != nil {
			return err
		}
		r.print(cmd.OutOrStdout())
		return nil
	},
}

type bucketReport struct {
	numScores     int
	numFiles      int64
	totalBytes    int64
	indexBytes    int64
	numChunks     []int
	renderedTicks []uint32
	openEnded     int
	warnings      int
	performances  []model.PerformanceOverview
}

func analyzeBucket(b *bucket.Bucket) (bucketReport, error) {
	var report bucketReport

	scores, err := util.ReadBinary[model.FileNumToScorePath](filepath.Join(b.Dir(), constants.ScoresFile))
	if err == nil {
		report.numScores = len(scores)
	}

	files, err := b.Files()
	if err != nil {
		return report, err
	}
	for _, path := range files {
		perf, indexLength, err := bucket.ReadPerformance(path)
		if err != nil {
			continue
		}
		stats, err := os.Stat(path)
		if err != nil {
			return report, err
		}
		report.numFiles += 1
		report.totalBytes += stats.Size()
		report.indexBytes += int64(indexLength + 4)

		o := perf.Overview()
		o.Filename = filepath.Base(path)
		report.performances = append(report.performances, o)
		report.numChunks = append(report.numChunks, o.ChunkCount)
		report.renderedTicks = append(report.renderedTicks, o.Total)
		report.warnings += o.Warnings
		if o.OpenEnded {
			report.openEnded += 1
		}
	}
	return report, nil
}

func (r bucketReport) print(w io.Writer) {
	fmt.Fprintf(w, "scores indexed: %v\n", r.numScores)
	fmt.Fprintf(w, "performances: %v\n", r.numFiles)
	fmt.Fprintf(w, "total size: %v\n", humanize.Bytes(uint64(r.totalBytes)))
	if r.totalBytes > 0 {
		fmt.Fprintf(w, "index share: %.1f%%\n", 100*float64(r.indexBytes)/float64(r.totalBytes))
	}
	fmt.Fprintf(w, "chunks: %v\n", humanize.Comma(int64(util.Sum(r.numChunks))))
	fmt.Fprintf(w, "rendered ticks: %v\n", humanize.Comma(int64(util.Sum(r.renderedTicks))))
	fmt.Fprintf(w, "open-ended: %v\n", r.openEnded)
	fmt.Fprintf(w, "warnings: %v\n", r.warnings)
	for _, p := range r.performances {
		fmt.Fprintf(w, "%v\t%v\t%v chunks\t%v ticks\n", p.Filename, p.Name, p.ChunkCount, humanize.Comma(int64(p.Total)))
	}
}
