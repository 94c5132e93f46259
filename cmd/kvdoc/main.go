// Command kvdoc inspects kvdoc databases without knowing their Go types.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
