// Command seed writes fake DJ sign-ups as an importable CSV or XLSX file.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
