package main

import (
	"log"
	"math/rand"
	"os"

	"github.com/spf13/cobra"
	"github.com/unixpickle/envrec"
	"github.com/unixpickle/rip"
)

var (
	recordHost    string
	recordEnvName string
	recordName    string
	recordAgentID string
	recordBatch   int
	recordSteps   int
	recordDataDir string
	recordSeed    int64
)

func init() {
	recordCmd.Flags().StringVar(&recordHost, "host", "localhost:5001",
		"address of the gym-socket-api server")
	recordCmd.Flags().StringVar(&recordEnvName, "env", "CartPole-v0",
		"gym environment name")
	recordCmd.Flags().StringVar(&recordName, "name", "envrec",
		"dataset name (shard filename prefix)")
	recordCmd.Flags().StringVar(&recordAgentID, "agent", "",
		"agent ID for shard filenames")
	recordCmd.Flags().IntVar(&recordBatch, "batch", 8,
		"number of environment instances")
	recordCmd.Flags().IntVar(&recordSteps, "steps", 1000,
		"number of batched steps to record")
	recordCmd.Flags().StringVar(&recordDataDir, "data-dir", ".",
		"directory for shard files")
	recordCmd.Flags().Int64Var(&recordSeed, "seed", 0,
		"seed for the random policy")
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Drive environments with a random policy and write shards",
	RunE: func(cmd *cobra.Command, args []string) error {
		rec := &envrec.Recorder{
			Name:  recordName,
			Maker: envrec.GymMaker(recordHost, recordEnvName, false),
		}
		if err := rec.Initialize(recordBatch); err != nil {
			return err
		}
		defer rec.Close()
		if recordAgentID != "" {
			if err := rec.SetAgentID(recordAgentID); err != nil {
				return err
			}
		}
		if err := os.MkdirAll(recordDataDir, 0755); err != nil {
			return err
		}

		gen := rand.New(rand.NewSource(recordSeed))
		actionSpace := rec.ActionSpace()

		if _, err := rec.Reset(nil); err != nil {
			return err
		}

		log.Println("Recording. Press Ctrl+C to stop early.")
		killed := rip.NewRIP().Chan()

	StepLoop:
		for i := 0; i < recordSteps; i++ {
			select {
			case <-killed:
				log.Println("Interrupted; exporting what was recorded.")
				break StepLoop
			default:
			}
			actions := make([][]float64, rec.BatchSize())
			for j := range actions {
				actions[j] = actionSpace.Sample(gen)
			}
			res, err := rec.Step(actions)
			if err != nil {
				return err
			}
			doneIndices := envrec.DoneIndices(res.Dones)
			if len(doneIndices) > 0 {
				if _, err := rec.Reset(doneIndices); err != nil {
					return err
				}
			}
			if (i+1)%100 == 0 {
				completed := rec.Trajectories().CompletedTrajectories()
				log.Printf("step %d: completed=%d mean_reward=%v", i+1,
					len(completed), envrec.MeanReward(completed))
			}
		}

		if err := rec.GenerateData(recordDataDir); err != nil {
			return err
		}
		log.Printf("Wrote shards for %d completed trajectories to %s.",
			len(rec.Trajectories().CompletedTrajectories()), recordDataDir)
		return nil
	},
}
