// Package stats samples process resource usage while a street import runs.
package stats

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/process"
)

// ImportStats is the report of one import run.
type ImportStats struct {
	StartTime time.Time
	EndTime   time.Time
	Samples   []Sample
	Summary   Summary
}

type Sample struct {
	Elapsed      time.Duration
	HeapAlloc    uint64
	Sys          uint64
	ProcessRSS   uint64
	CPUPercent   float64
	NumGoroutine int
	NumGC        uint32
	// Streets is the number of streets extracted when the sample was taken.
	Streets int
}

type Summary struct {
	PeakHeapAlloc  uint64
	PeakProcessRSS uint64
	PeakCPUPercent float64
	AvgCPUPercent  float64
	PeakGoroutines int
	GCCycles       uint32
	Streets        int
	StreetsPerSec  float64
}

// Collector samples runtime statistics until Stop is called.
type Collector struct {
	mu       sync.Mutex
	stats    ImportStats
	interval time.Duration
	progress func() int
	proc     *process.Process

	stop chan struct{}
	done chan struct{}
}

// NewCollector creates a collector. progress reports the number of streets
// extracted so far and may be nil.
func NewCollector(interval time.Duration, progress func() int) (*Collector, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to get process info: %w", err)
	}
	if progress == nil {
		progress = func() int { return 0 }
	}

	return &Collector{
		stats:    ImportStats{Samples: make([]Sample, 0, 256)},
		interval: interval,
		progress: progress,
		proc:     proc,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

func (c *Collector) Start() {
	c.stats.StartTime = time.Now()
	go c.collect()
}

func (c *Collector) collect() {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.sample()
	for {
		select {
		case <-c.stop:
			c.sample()
			return
		case <-ticker.C:
			c.sample()
		}
	}
}

func (c *Collector) sample() {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	s := Sample{
		Elapsed:      time.Since(c.stats.StartTime),
		HeapAlloc:    mem.HeapAlloc,
		Sys:          mem.Sys,
		NumGC:        mem.NumGC,
		NumGoroutine: runtime.NumGoroutine(),
		Streets:      c.progress(),
	}
	if info, err := c.proc.MemoryInfo(); err == nil && info != nil {
		s.ProcessRSS = info.RSS
	}
	if cpu, err := c.proc.CPUPercent(); err == nil {
		s.CPUPercent = cpu
	}

	c.mu.Lock()
	c.stats.Samples = append(c.stats.Samples, s)
	c.mu.Unlock()
}

// Stop ends sampling and returns the report.
func (c *Collector) Stop() ImportStats {
	close(c.stop)
	<-c.done

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.EndTime = time.Now()
	c.stats.Summary = summarize(c.stats.Samples, c.stats.EndTime.Sub(c.stats.StartTime))
	return c.stats
}

func summarize(samples []Sample, elapsed time.Duration) Summary {
	var sum Summary
	if len(samples) == 0 {
		return sum
	}

	var totalCPU float64
	for _, s := range samples {
		sum.PeakHeapAlloc = max(sum.PeakHeapAlloc, s.HeapAlloc)
		sum.PeakProcessRSS = max(sum.PeakProcessRSS, s.ProcessRSS)
		sum.PeakCPUPercent = max(sum.PeakCPUPercent, s.CPUPercent)
		sum.PeakGoroutines = max(sum.PeakGoroutines, s.NumGoroutine)
		sum.GCCycles = max(sum.GCCycles, s.NumGC)
		totalCPU += s.CPUPercent
	}
	sum.AvgCPUPercent = totalCPU / float64(len(samples))
	sum.Streets = samples[len(samples)-1].Streets
	if elapsed > 0 {
		sum.StreetsPerSec = float64(sum.Streets) / elapsed.Seconds()
	}
	return sum
}

// Report renders the stats as a plain text table. At most maxRows samples are
// listed, evenly picked across the run.
func (stats ImportStats) Report(maxRows int) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "street import %s .. %s (%s)\n",
		stats.StartTime.Format(time.RFC3339), stats.EndTime.Format(time.RFC3339),
		stats.EndTime.Sub(stats.StartTime).Round(time.Millisecond))
	fmt.Fprintf(&sb, "streets:        %s (%.1f/s)\n", humanize.Comma(int64(stats.Summary.Streets)), stats.Summary.StreetsPerSec)
	fmt.Fprintf(&sb, "peak heap:      %s\n", humanize.IBytes(stats.Summary.PeakHeapAlloc))
	fmt.Fprintf(&sb, "peak rss:       %s\n", humanize.IBytes(stats.Summary.PeakProcessRSS))
	fmt.Fprintf(&sb, "cpu peak/avg:   %.1f%% / %.1f%%\n", stats.Summary.PeakCPUPercent, stats.Summary.AvgCPUPercent)
	fmt.Fprintf(&sb, "goroutines:     %d\n", stats.Summary.PeakGoroutines)
	fmt.Fprintf(&sb, "gc cycles:      %d\n\n", stats.Summary.GCCycles)

	fmt.Fprintf(&sb, "%-10s %-12s %-12s %-8s %-12s\n", "elapsed", "heap", "rss", "cpu%", "streets")
	for _, s := range pick(stats.Samples, maxRows) {
		fmt.Fprintf(&sb, "%-10s %-12s %-12s %-8.1f %-12s\n",
			s.Elapsed.Round(time.Second),
			humanize.IBytes(s.HeapAlloc),
			humanize.IBytes(s.ProcessRSS),
			s.CPUPercent,
			humanize.Comma(int64(s.Streets)))
	}
	return sb.String()
}

func (stats ImportStats) SaveToFile(filename string) error {
	if err := os.WriteFile(filename, []byte(stats.Report(100)), 0644); err != nil {
		return fmt.Errorf("failed to write stats file: %w", err)
	}
	return nil
}

func pick(samples []Sample, n int) []Sample {
	if n <= 0 || len(samples) <= n {
		return samples
	}
	if n == 1 {
		return samples[:1]
	}
	out := make([]Sample, 0, n)
	step := float64(len(samples)-1) / float64(n-1)
	for i := range n {
		out = append(out, samples[int(float64(i)*step)])
	}
	return out
}
