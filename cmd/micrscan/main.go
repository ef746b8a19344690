// Command micrscan is the CLI driver for the MICR reading pipeline:
// preprocess and scan single images, or serve requests over stdin/stdout.
package main

import "github.com/finos/micrscan/cmd/micrscan/cmd"

func main() {
	cmd.Execute()
}
