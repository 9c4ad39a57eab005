package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/justapithecus/smelt/log"
	"github.com/justapithecus/smelt/metrics"
	"github.com/justapithecus/smelt/proc"
	"github.com/justapithecus/smelt/types"
)

// fakeCompiler writes a shell stand-in for the external compiler. Every
// invocation appends its argument list to a marker file; on exit code 0 it
// also creates the --out: target.
func fakeCompiler(t *testing.T, dir string, exitCode int) (bin, marker string) {
	t.Helper()
	marker = filepath.Join(dir, "invocations.log")
	bin = filepath.Join(dir, "fakecc")
	text := fmt.Sprintf(`#!/bin/sh
echo "$@" >> %q
out=""
for a in "$@"; do
  case "$a" in
    --out:*) out=${a#--out:} ;;
  esac
done
if [ -n "$out" ] && [ %d -eq 0 ]; then
  : > "$out"
fi
exit %d
`, marker, exitCode, exitCode)
	if err := os.WriteFile(bin, []byte(text), 0o755); err != nil {
		t.Fatal(err)
	}
	return bin, marker
}

func invocations(t *testing.T, marker string) []string {
	t.Helper()
	data, err := os.ReadFile(marker)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

// stage creates a script with one load dependency and one bare reference
// in its own directory (separate from the fake compiler's).
func stage(t *testing.T) (scriptPath string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "util.csx"), []byte("// util\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	scriptPath = filepath.Join(dir, "app.csx")
	content := strings.Join([]string{
		`#load "util.csx"`,
		`#r "System.Net.Http"`,
		`Console.WriteLine("hi");`,
	}, "\n") + "\n"
	if err := os.WriteFile(scriptPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return scriptPath
}

func quietLogger(scriptPath string) *log.Logger {
	return log.NewLogger(scriptPath).WithOutput(io.Discard)
}

func TestBuildCompilesAndRestores(t *testing.T) {
	scriptPath := stage(t)
	compiler, marker := fakeCompiler(t, t.TempDir(), 0)

	before, err := os.ReadFile(scriptPath)
	if err != nil {
		t.Fatal(err)
	}

	o := New(Options{Compiler: compiler, Logger: quietLogger(scriptPath)})
	result, err := o.Build(context.Background(), scriptPath)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if !result.Succeeded() {
		t.Fatalf("result = %+v, want success", result)
	}
	if result.Cached {
		t.Error("first build must not be served from cache")
	}
	if _, err := os.Stat(result.Executable); err != nil {
		t.Errorf("executable missing: %v", err)
	}

	after, err := os.ReadFile(scriptPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("script content changed across Build")
	}
	if _, err := os.Stat(scriptPath + ".bak"); !os.IsNotExist(err) {
		t.Error("backup file left behind")
	}

	calls := invocations(t, marker)
	if len(calls) != 1 {
		t.Fatalf("compiler invoked %d times, want 1", len(calls))
	}
	argv := calls[0]
	for _, want := range []string{
		"--reference:System.Net.Http",
		"--target:exe",
		"--out:" + result.Executable,
		scriptPath,
		filepath.Join(filepath.Dir(scriptPath), "util.csx"),
	} {
		if !strings.Contains(argv, want) {
			t.Errorf("compiler args %q missing %q", argv, want)
		}
	}

	record, err := ReadRecord(result.Staging.BinFolder)
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	if record.Compiler != compiler || record.ExitCode != 0 {
		t.Errorf("record = %+v", record)
	}
}

func TestBuildCacheHitSkipsCompiler(t *testing.T) {
	scriptPath := stage(t)
	compiler, marker := fakeCompiler(t, t.TempDir(), 0)
	o := New(Options{Compiler: compiler, Logger: quietLogger(scriptPath)})

	if _, err := o.Build(context.Background(), scriptPath); err != nil {
		t.Fatalf("first Build: %v", err)
	}

	result, err := o.Build(context.Background(), scriptPath)
	if err != nil {
		t.Fatalf("second Build: %v", err)
	}
	if !result.Succeeded() || !result.Cached {
		t.Errorf("result = %+v, want cached success", result)
	}
	if result.Staging.CreatedByThisRun {
		t.Error("cache hit must not claim staging ownership")
	}
	if got := len(invocations(t, marker)); got != 1 {
		t.Errorf("compiler invoked %d times, want 1 (cache hit must skip it)", got)
	}
}

func TestBuildForceBypassesCache(t *testing.T) {
	scriptPath := stage(t)
	compiler, marker := fakeCompiler(t, t.TempDir(), 0)

	o := New(Options{Compiler: compiler, Logger: quietLogger(scriptPath)})
	if _, err := o.Build(context.Background(), scriptPath); err != nil {
		t.Fatalf("first Build: %v", err)
	}

	forced := New(Options{Compiler: compiler, Force: true, Logger: quietLogger(scriptPath)})
	if _, err := forced.Build(context.Background(), scriptPath); err != nil {
		t.Fatalf("forced Build: %v", err)
	}

	if got := len(invocations(t, marker)); got != 2 {
		t.Errorf("compiler invoked %d times, want 2", got)
	}
}

func TestBuildRebuildsWhenDependencyNewer(t *testing.T) {
	scriptPath := stage(t)
	compiler, marker := fakeCompiler(t, t.TempDir(), 0)
	o := New(Options{Compiler: compiler, Logger: quietLogger(scriptPath)})

	if _, err := o.Build(context.Background(), scriptPath); err != nil {
		t.Fatalf("first Build: %v", err)
	}

	dep := filepath.Join(filepath.Dir(scriptPath), "util.csx")
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(dep, future, future); err != nil {
		t.Fatal(err)
	}

	if _, err := o.Build(context.Background(), scriptPath); err != nil {
		t.Fatalf("second Build: %v", err)
	}

	if got := len(invocations(t, marker)); got != 2 {
		t.Errorf("compiler invoked %d times, want 2 (stale dependency must force rebuild)", got)
	}
}

func TestBuildFailureRemovesCreatedStaging(t *testing.T) {
	scriptPath := stage(t)
	compiler, _ := fakeCompiler(t, t.TempDir(), 1)

	before, err := os.ReadFile(scriptPath)
	if err != nil {
		t.Fatal(err)
	}

	o := New(Options{Compiler: compiler, Logger: quietLogger(scriptPath)})
	result, err := o.Build(context.Background(), scriptPath)
	if err != nil {
		t.Fatalf("Build returned error %v, want failure result", err)
	}
	if result.Succeeded() {
		t.Fatal("result should be a failure")
	}

	if _, err := os.Stat(result.Staging.BinFolder); !os.IsNotExist(err) {
		t.Error("staging directory this run created should be removed on failure")
	}

	after, err := os.ReadFile(scriptPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("script content changed across failed Build")
	}
	if _, err := os.Stat(scriptPath + ".bak"); !os.IsNotExist(err) {
		t.Error("backup file left behind after failed Build")
	}
}

func TestBuildFailureKeepsPreexistingStaging(t *testing.T) {
	scriptPath := stage(t)
	compiler, _ := fakeCompiler(t, t.TempDir(), 1)

	binDir := filepath.Join(filepath.Dir(scriptPath), StagingDirName)
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatal(err)
	}

	o := New(Options{Compiler: compiler, Logger: quietLogger(scriptPath)})
	result, err := o.Build(context.Background(), scriptPath)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.Succeeded() {
		t.Fatal("result should be a failure")
	}
	if result.Staging.CreatedByThisRun {
		t.Error("pre-existing staging directory wrongly claimed")
	}
	if _, err := os.Stat(binDir); err != nil {
		t.Error("pre-existing staging directory must survive a failed build")
	}
}

func TestBuildCompilerLaunchFailureRestores(t *testing.T) {
	scriptPath := stage(t)

	before, err := os.ReadFile(scriptPath)
	if err != nil {
		t.Fatal(err)
	}

	o := New(Options{Compiler: "/nonexistent/smelt-cc", Logger: quietLogger(scriptPath)})
	_, err = o.Build(context.Background(), scriptPath)

	var launchErr *proc.LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("error = %v, want *proc.LaunchError", err)
	}

	after, readErr := os.ReadFile(scriptPath)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if string(before) != string(after) {
		t.Error("script content changed across launch-failed Build")
	}
	if _, err := os.Stat(scriptPath + ".bak"); !os.IsNotExist(err) {
		t.Error("backup file left behind after launch failure")
	}
}

func TestReusable(t *testing.T) {
	dir := t.TempDir()
	binDir := filepath.Join(dir, "bin")
	exe := filepath.Join(binDir, "app.csx.exe")

	ref := time.Now().Add(-time.Minute)

	if Reusable(binDir, exe, ref) {
		t.Error("missing staging directory must not be reusable")
	}

	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if Reusable(binDir, exe, ref) {
		t.Error("missing executable must not be reusable")
	}

	if err := os.WriteFile(exe, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if !Reusable(binDir, exe, ref) {
		t.Error("fresh artifact should be reusable")
	}

	if Reusable(binDir, exe, time.Now().Add(time.Hour)) {
		t.Error("artifact older than the staleness reference must not be reusable")
	}
}

func TestRecordRoundTrip(t *testing.T) {
	binDir := t.TempDir()
	want := &types.BuildRecord{
		Script:       "/tmp/app.csx",
		Artifact:     "/tmp/bin/app.csx.exe",
		Compiler:     "csc",
		Args:         []string{"--target:exe"},
		ExitCode:     0,
		StartedAt:    time.Now().Truncate(time.Second),
		Duration:     1300 * time.Millisecond,
		StalenessRef: time.Now().Add(-time.Hour).Truncate(time.Second),
	}

	if err := WriteRecord(binDir, want); err != nil {
		t.Fatalf("WriteRecord: %v", err)
	}
	got, err := ReadRecord(binDir)
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}

	if got.Script != want.Script || got.Compiler != want.Compiler || got.ExitCode != want.ExitCode {
		t.Errorf("record = %+v, want %+v", got, want)
	}
	if got.Duration != want.Duration {
		t.Errorf("duration = %v, want %v", got.Duration, want.Duration)
	}
	if !got.StartedAt.Equal(want.StartedAt) {
		t.Errorf("started_at = %v, want %v", got.StartedAt, want.StartedAt)
	}
}

func TestBuildRecordsMetrics(t *testing.T) {
	scriptPath := stage(t)
	compiler, _ := fakeCompiler(t, t.TempDir(), 0)

	collector := metrics.NewCollector(compiler, scriptPath)
	o := New(Options{Compiler: compiler, Logger: quietLogger(scriptPath), Metrics: collector})

	if _, err := o.Build(context.Background(), scriptPath); err != nil {
		t.Fatalf("Build: %v", err)
	}
	// Second build is served from cache.
	if _, err := o.Build(context.Background(), scriptPath); err != nil {
		t.Fatalf("Build: %v", err)
	}

	s := collector.Snapshot()
	if s.BuildsStarted != 2 {
		t.Errorf("BuildsStarted = %d, want 2", s.BuildsStarted)
	}
	if s.BuildsSucceeded != 1 {
		t.Errorf("BuildsSucceeded = %d, want 1", s.BuildsSucceeded)
	}
	if s.CacheHits != 1 {
		t.Errorf("CacheHits = %d, want 1", s.CacheHits)
	}
	if s.CompileTime <= 0 {
		t.Errorf("CompileTime = %v, want > 0", s.CompileTime)
	}
}

func TestBuildFailureCountsInMetrics(t *testing.T) {
	scriptPath := stage(t)
	compiler, _ := fakeCompiler(t, t.TempDir(), 2)

	collector := metrics.NewCollector(compiler, scriptPath)
	o := New(Options{Compiler: compiler, Logger: quietLogger(scriptPath), Metrics: collector})

	result, err := o.Build(context.Background(), scriptPath)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.Succeeded() {
		t.Fatal("expected failure result")
	}

	if got := collector.Snapshot().BuildsFailed; got != 1 {
		t.Errorf("BuildsFailed = %d, want 1", got)
	}
}
