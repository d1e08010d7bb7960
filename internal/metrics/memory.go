package metrics

import (
	"runtime"

	"github.com/sirupsen/logrus"
)

const mb = 1024 * 1024

// MemorySnapshot is the subset of runtime.MemStats reported around a run.
type MemorySnapshot struct {
	AllocMB      float64
	TotalAllocMB float64
	SysMB        float64
	Mallocs      uint64
	NumGC        uint32
}

// ReadMemory captures the current heap statistics. It does not force a GC.
func ReadMemory() MemorySnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return MemorySnapshot{
		AllocMB:      float64(m.Alloc) / mb,
		TotalAllocMB: float64(m.TotalAlloc) / mb,
		SysMB:        float64(m.Sys) / mb,
		Mallocs:      m.Mallocs,
		NumGC:        m.NumGC,
	}
}

// MallocsSince returns the heap objects allocated between before and s.
func (s MemorySnapshot) MallocsSince(before MemorySnapshot) uint64 {
	if s.Mallocs < before.Mallocs {
		return 0
	}
	return s.Mallocs - before.Mallocs
}

func (s MemorySnapshot) Fields() logrus.Fields {
	return logrus.Fields{
		"alloc_mb":       s.AllocMB,
		"total_alloc_mb": s.TotalAllocMB,
		"sys_mb":         s.SysMB,
		"num_gc":         s.NumGC,
	}
}
