package benchmarks

import (
	"fmt"
	"os"
	"path"
	"runtime/pprof"
)

// startProfiling starts the CPU profile when requested, the returned
// function stops it
func startProfiling() (func(), error) {
	if cpuprofile == "" {
		return func() {}, nil
	}
	cpuProfPath := path.Join(saveFile, cpuprofile)
	fmt.Println("Profiling CPU to ", cpuProfPath)
	f, err := os.Create(cpuProfPath)
	if err != nil {
		return nil, fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("could not start CPU profile: %w", err)
	}
	return func() {
		pprof.StopCPUProfile()
		f.Close()
	}, nil
}
