// Package envrec drives batches of simulation environments
// in lock-step, records each environment's interaction
// history as trajectories, and exports the completed
// trajectories as a sharded dataset of flat records.
//
// The typical interaction loop looks like:
//
//	rec, err := envrec.NewRecorder("cartpole_ds", "CartPole", 8)
//	// handle err
//	rec.Reset(nil)
//	for i := 0; i < numSteps; i++ {
//		res, err := rec.Step(actions)
//		// handle err
//		rec.Reset(envrec.DoneIndices(res.Dones))
//	}
//	rec.GenerateData(dataDir)
package envrec
