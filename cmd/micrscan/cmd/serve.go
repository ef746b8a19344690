package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/finos/micrscan/internal/session"
)

var serveMode string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the facade over line-delimited JSON requests on stdin/stdout",
	Long: `serve reads one JSON Request per line from stdin and writes the
matching JSON Response to stdout, running the facade's preprocess or scan
entry point (--mode) for each. Intended as a simple batch driver, not a
network server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveMode != "preprocess" && serveMode != "scan" {
			return fmt.Errorf("--mode must be %q or %q", "preprocess", "scan")
		}

		sess, cleanup, err := buildSession()
		if err != nil {
			return err
		}
		defer cleanup()

		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
		enc := json.NewEncoder(os.Stdout)

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var req session.Request
			if err := json.Unmarshal(line, &req); err != nil {
				fmt.Fprintf(os.Stderr, "malformed request: %v\n", err)
				continue
			}

			var resp *session.Response
			var runErr error
			if serveMode == "preprocess" {
				resp, runErr = sess.Preprocess(req)
			} else {
				resp, runErr = sess.Scan(req)
			}
			if runErr != nil {
				fmt.Fprintf(os.Stderr, "request %q failed: %v\n", req.ID, runErr)
				continue
			}
			if err := enc.Encode(resp); err != nil {
				return fmt.Errorf("writing response: %w", err)
			}
		}
		return scanner.Err()
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveMode, "mode", "scan", `facade entry point to run per request ("preprocess" or "scan")`)
}
