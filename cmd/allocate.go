package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/fairshare/alloc"
	"github.com/inference-sim/fairshare/alloc/trace"
)

// allocation is everything one profile file produces.
type allocation struct {
	Path    string
	Seed    int64
	Profile *alloc.PreferenceProfile
	Config  alloc.Config
	Outcome *alloc.Outcome
	Trace   *trace.AllocationTrace
}

// resolveSeed picks the draw seed: an explicit --seed wins, then the file's
// seed, then the flag default.
func resolveSeed(spec *alloc.ProfileSpec, flagSeed int64, flagChanged bool) int64 {
	if flagChanged || spec.Seed == nil {
		return flagSeed
	}
	return *spec.Seed
}

// allocateFile loads, builds, and runs one profile file end to end.
func allocateFile(path string, drawSeed int64, level trace.TraceLevel) (*allocation, error) {
	spec, err := alloc.LoadProfileSpec(path)
	if err != nil {
		return nil, err
	}
	return allocateSpec(path, spec, drawSeed, level)
}

func allocateSpec(path string, spec *alloc.ProfileSpec, drawSeed int64, level trace.TraceLevel) (*allocation, error) {
	cfg := spec.Config(alloc.DefaultConfig())
	profile, err := spec.Build(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	tr := trace.NewAllocationTrace(trace.TraceConfig{Level: level})
	rng := alloc.NewPartitionedRNG(alloc.NewDrawKey(drawSeed))

	logrus.Infof("Allocating %d items for %s (seed=%d)", profile.Size(), path, drawSeed)
	out, err := alloc.Run(profile, cfg, rng.ForSubsystem(alloc.SubsystemSampler), tr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &allocation{
		Path:    path,
		Seed:    drawSeed,
		Profile: profile,
		Config:  cfg,
		Outcome: out,
		Trace:   tr,
	}, nil
}
