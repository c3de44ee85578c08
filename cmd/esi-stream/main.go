// Command esi-stream is a reference harness around the esi package: a
// stdin-to-stdout ESI pass and a tiny demo proxy that applies ESI to an
// origin response, per SPEC_FULL.md's "one cmd/ binary as a reference
// harness, not a deployment system".
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
