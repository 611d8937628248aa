package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ruimo/klavier-core-sub000/file"
	"github.com/ruimo/klavier-core-sub000/model"
	"github.com/ruimo/klavier-core-sub000/play"
)

var (
	locateTick  uint32
	locateIter  uint8
	locateAccum uint32
)

func init() {
	locateCmd.Flags().Uint32Var(&locateTick, "tick", 0, "score tick")
	locateCmd.Flags().Uint8Var(&locateIter, "iter", 1, "pass through the tick, 1 to 5")
	locateCmd.Flags().Uint32Var(&locateAccum, "accum", 0, "accumulated tick to translate back")
	rootCmd.AddCommand(locateCmd)
}

var locateCmd = &cobra.Command{
	Use:   "locate <score>",
	Short: "Translates between score and playback positions",
	Long: `Translates a score tick and pass into the accumulated (playback) tick,
or with --accum an accumulated tick into the score tick and pass.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		score, err := file.LoadScore(args[0])
		if err != nil {
			return err
		}
		req := model.LocateRequestBody{Score: score, Tick: locateTick, Iter: locateIter}
		if cmd.Flags().Changed("accum") {
			req.Accum = &locateAccum
		}
		res, err := Locate(req)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "tick %d iter %d accum %d\n", res.Tick, res.Iter, res.AccumTick)
		return err
	},
}

// Locate renders the score and maps the requested position either way.
func Locate(req model.LocateRequestBody) (model.LocateResponse, error) {
	perf, err := Render(req.Score)
	if err != nil {
		return model.LocateResponse{}, err
	}
	idx := perf.Index()

	if req.Accum != nil {
		st, err := play.FromAccumTick(idx, *req.Accum)
		if err != nil {
			return model.LocateResponse{}, err
		}
		return model.LocateResponse{Tick: st.Tick, Iter: st.Iter.Value(), AccumTick: *req.Accum}, nil
	}

	st := play.NewStartTick(req.Tick, req.Iter)
	accum, err := st.ToAccumTick(idx)
	if err != nil {
		return model.LocateResponse{}, err
	}
	return model.LocateResponse{Tick: st.Tick, Iter: st.Iter.Value(), AccumTick: accum}, nil
}
