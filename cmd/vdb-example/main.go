// Command vdb-example exercises the client against a running server.
package main

import (
	"os"

	"github.com/Aleph-Alpha/vdb-client/cmd/vdb-example/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
