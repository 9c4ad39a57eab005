// Package metrics provides per-process build metrics collection.
//
// The Collector accumulates counters across the builds an orchestrator runs.
// It is a leaf package with no internal dependencies.
package metrics

import (
	"sync"
	"time"
)

// Snapshot is an immutable point-in-time view of all collected metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Build lifecycle
	BuildsStarted   int64
	BuildsSucceeded int64
	BuildsFailed    int64
	CacheHits       int64

	// Compiler process
	CompilerLaunchFailure int64
	StdoutBytes           int64
	StderrBytes           int64

	// Accumulated wall time spent inside compiler invocations.
	CompileTime time.Duration

	// Dimensions (informational, set at construction)
	Compiler string
	Script   string
}

// Collector accumulates metrics for one orchestrator.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	buildsStarted   int64
	buildsSucceeded int64
	buildsFailed    int64
	cacheHits       int64

	compilerLaunchFailure int64
	stdoutBytes           int64
	stderrBytes           int64
	compileTime           time.Duration

	compiler string
	script   string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(compiler, script string) *Collector {
	return &Collector{
		compiler: compiler,
		script:   script,
	}
}

// IncBuildStarted records a build start.
func (c *Collector) IncBuildStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.buildsStarted++
	c.mu.Unlock()
}

// IncBuildSucceeded records a build that produced a usable executable.
func (c *Collector) IncBuildSucceeded() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.buildsSucceeded++
	c.mu.Unlock()
}

// IncBuildFailed records a compiler run that exited non-zero.
func (c *Collector) IncBuildFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.buildsFailed++
	c.mu.Unlock()
}

// IncCacheHit records a build satisfied by the cached executable.
func (c *Collector) IncCacheHit() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.cacheHits++
	c.mu.Unlock()
}

// IncCompilerLaunchFailure records a compiler that could not be started.
func (c *Collector) IncCompilerLaunchFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.compilerLaunchFailure++
	c.mu.Unlock()
}

// AddCompileTime accumulates wall time spent inside one compiler invocation.
func (c *Collector) AddCompileTime(d time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.compileTime += d
	c.mu.Unlock()
}

// AddStreamBytes accumulates captured output volume for one compiler run.
func (c *Collector) AddStreamBytes(stdout, stderr int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.stdoutBytes += stdout
	c.stderrBytes += stderr
	c.mu.Unlock()
}

// Snapshot returns an immutable point-in-time view of all metrics.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		BuildsStarted:   c.buildsStarted,
		BuildsSucceeded: c.buildsSucceeded,
		BuildsFailed:    c.buildsFailed,
		CacheHits:       c.cacheHits,

		CompilerLaunchFailure: c.compilerLaunchFailure,
		StdoutBytes:           c.stdoutBytes,
		StderrBytes:           c.stderrBytes,
		CompileTime:           c.compileTime,

		Compiler: c.compiler,
		Script:   c.script,
	}
}
