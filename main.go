// main is the entry point for the biomarker CLI.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/biomarker/cmd"
	"github.com/huangsam/biomarker/internal/iocache"
)

func main() {
	defer iocache.CloseStores()
	cmd.SetCacheManager(iocache.Manager)

	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Warning: %v\n", stopErr)
	}
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		iocache.CloseStores()
		os.Exit(1)
	}
}
