package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configFile    string
	referenceFile string
	descriptorArg string
)

// RootCmd is the base command when micrscan is invoked with no subcommand.
var RootCmd = &cobra.Command{
	Use:   "micrscan",
	Short: "read the MICR line off a bank cheque image",
	Long: `micrscan locates and reads the MICR (Magnetic Ink Character
Recognition) line printed along the bottom of a bank cheque image,
emitting routing number, account number, cheque number, and the raw
MICR string.`,
}

// Execute runs RootCmd, exiting the process on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a YAML config file (defaults applied if empty)")
	RootCmd.PersistentFlags().StringVar(&referenceFile, "reference-image", "", "path to the reference glyph asset image (required)")
	RootCmd.PersistentFlags().StringVar(&descriptorArg, "reference-descriptors", "1,2,3,4,5,6,7,8,9,0,T:3,U:3,A:3,D:3", "comma-separated reference glyph descriptor list")
}
