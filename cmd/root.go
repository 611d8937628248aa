package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ruimo/klavier-core-sub000/constants"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "klavier",
	Short: "Renders the repeat structure of a score",
	Long: `Renders the repeat structure of a score (repeats, numbered endings,
D.C., D.S., Fine, Segno and Coda) into the order the bars are played.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		log.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", constants.GetLogLevel(), "debug, info, warn or error")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
