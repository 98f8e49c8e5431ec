// Command importme parses CSV and XLSX files against the built-in schemas
// and reports the validated records and row errors.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
