package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/unixpickle/envrec"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <shard-file> [<shard-file> ...]",
	Short: "Print the records in shard files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		defer w.Flush()
		fmt.Fprintln(w, "SHARD\tTIMESTEP\tACTION\tRAW\tREWARD\tDONE")
		for _, path := range args {
			records, err := envrec.ReadShardFile(path)
			if err != nil {
				return err
			}
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%d\t%v\t%v\t%d\t%v\n", path, rec.Timestep,
					rec.Action, rec.RawReward, rec.Reward, rec.Done)
			}
		}
		return nil
	},
}
