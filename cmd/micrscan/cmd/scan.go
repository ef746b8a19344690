package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/finos/micrscan/internal/session"
)

var (
	scanDebug       []string
	scanTranslators []string
	scanCorrect     bool
	scanNoCorrect   bool
)

var scanCmd = &cobra.Command{
	Use:   "scan IMAGE",
	Short: "run the full MICR pipeline and print its response as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, cleanup, err := buildSession()
		if err != nil {
			return err
		}
		defer cleanup()

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}
		format, err := formatFromExt(args[0])
		if err != nil {
			return err
		}

		req := session.Request{
			ID:          args[0],
			Image:       session.ImageSpec{Format: string(format), Buffer: data},
			Debug:       scanDebug,
			Translators: scanTranslators,
		}
		if scanNoCorrect {
			no := false
			req.Correct = &no
		} else if scanCorrect {
			yes := true
			req.Correct = &yes
		}

		resp, err := sess.Scan(req)
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

func init() {
	RootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringSliceVar(&scanDebug, "debug", nil,
		"debug raster snapshots to include (deskewed,binarized,line,overlap-corrected,characters)")
	scanCmd.Flags().StringSliceVar(&scanTranslators, "translators", nil, "translator names to run (default: all configured)")
	scanCmd.Flags().BoolVar(&scanCorrect, "correct", false, "force overlap correction on")
	scanCmd.Flags().BoolVar(&scanNoCorrect, "no-correct", false, "force overlap correction off")
}
