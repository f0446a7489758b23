// Command corpus indexes a Zotero library into a vector store and
// answers natural-language queries against it.
package main

import (
	"os"

	"github.com/custodia-labs/corpus-cli/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
