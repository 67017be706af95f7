package util

import "runtime"

// MemSnapshot is a small view of runtime.MemStats for status output.
type MemSnapshot struct {
	HeapAllocMB uint64
	HeapObjects uint64
	NumGC       uint32
}

func ReadMem() MemSnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemSnapshot{
		HeapAllocMB: m.HeapAlloc / 1024 / 1024,
		HeapObjects: m.HeapObjects,
		NumGC:       m.NumGC,
	}
}
