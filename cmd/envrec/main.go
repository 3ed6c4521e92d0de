// Command envrec records gym environment interactions as
// a sharded dataset and inspects the resulting shards.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "envrec",
	Short: "Record environment interactions as a sharded dataset",
	Long: `envrec drives a batch of gym environments with a random
policy, records every interaction as trajectories, and
exports the completed trajectories to sharded record
files.

A gym-socket-api server must be running for the record
command; see https://github.com/unixpickle/gym-socket-api.`,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(inspectCmd)
}
