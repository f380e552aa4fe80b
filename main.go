// Command jolteon chooses per-stage parallelism and memory for a
// serverless workflow under a latency or cost bound; see cmd/root.go.
package main

import (
	"github.com/sangwoongk/jolteon-go/cmd"
)

func main() {
	cmd.Execute()
}
