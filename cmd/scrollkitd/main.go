// Command scrollkitd is a headless harness exercising the scroll
// engine, sliced controller, recycler, and item-scroll handle pipeline
// against a synthetic, config-driven data source.
package main

import "github.com/gioverse/scrollkit/cmd/scrollkitd/cmd"

func main() {
	cmd.Execute()
}
