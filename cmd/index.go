package cmd

import (
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ruimo/klavier-core-sub000/bucket"
	"github.com/ruimo/klavier-core-sub000/constants"
	"github.com/ruimo/klavier-core-sub000/file"
	"github.com/ruimo/klavier-core-sub000/util"
)

func init() {
	rootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index <dir> [max]",
	Short: "Renders every score in a directory into the bucket",
	Long:  `Renders every score in a directory into the bucket`,
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var maxNum int
		if len(args) == 2 {
			arg, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			maxNum = arg
		}
		return Index(args[0], maxNum)
	},
}

// Index recreates the bucket from the scores under dir. Scores that fail
// to load or render are skipped.
func Index(dir string, maxNum int) error {
	b := bucket.New(constants.GetIndexDir())
	if err := util.RecreateDir(b.Dir()); err != nil {
		return err
	}
	paths, err := file.GatherScorePaths(dir, maxNum)
	if err != nil {
		return err
	}
	fileNumMap := file.CreateFileNumMap(paths)

	keys := util.GetKeys(fileNumMap)
	for i, num := range keys {
		path := fileNumMap[num]
		log.Info("Processing score", "n", i+1, "of", len(keys), "path", path)
		score, err := file.LoadScore(path)
		if err != nil {
			log.Warn("Skipping score", "path", path, "err", err)
			continue
		}
		perf, err := Render(score)
		if err != nil {
			log.Warn("Skipping score", "path", path, "err", err)
			continue
		}
		if _, err := b.Put(perf); err != nil {
			return err
		}
	}

	if err := util.CreateBinary(filepath.Join(b.Dir(), constants.ScoresFile), fileNumMap); err != nil {
		return err
	}
	_, err = b.WriteOverview()
	return err
}
