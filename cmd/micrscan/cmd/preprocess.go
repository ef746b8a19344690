package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/finos/micrscan/internal/session"
)

var preprocessDebug []string

var preprocessCmd = &cobra.Command{
	Use:   "preprocess IMAGE",
	Short: "run the preprocessor alone and print its response as JSON",
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
			ID:    args[0],
			Image: session.ImageSpec{Format: string(format), Buffer: data},
			Debug: preprocessDebug,
		}
		resp, err := sess.Preprocess(req)
		if err != nil {
			return err
		}
		return printJSON(resp)
	},
}

func init() {
	RootCmd.AddCommand(preprocessCmd)
	preprocessCmd.Flags().StringSliceVar(&preprocessDebug, "debug", nil, "debug raster snapshots to include (deskewed)")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
