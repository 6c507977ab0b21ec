// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package contract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePython prints a TEAL program naming the source it "ran".
type fakePython struct {
	mu    sync.Mutex
	runs  int
	fail  string
	empty bool
}

func (f *fakePython) Run(_ context.Context, dir, name string, args []string, stdout, stderr io.Writer) error {
	f.mu.Lock()
	f.runs++
	f.mu.Unlock()
	if args[0] == f.fail {
		fmt.Fprintln(stderr, "Traceback: NameError: Seq")
		return errors.New("exit status 1")
	}
	if f.empty {
		return nil
	}
	fmt.Fprintf(stdout, "#pragma version 6\n// %s in %s\nint 1\nreturn\n", args[0], filepath.Base(dir))
	return nil
}

func (f *fakePython) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

func newContract(t *testing.T, root, name string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ApprovalSource), []byte("# approval"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ClearSource), []byte("# clear"), 0o644))
	return dir
}

func newTestBuilder(root string, py *fakePython) *Builder {
	b := NewBuilder(root, "", "")
	b.Runner = py
	return b
}

func TestBuildWritesTEAL(t *testing.T) {
	root := t.TempDir()
	dir := newContract(t, root, "counter")
	b := newTestBuilder(root, &fakePython{})

	res, err := b.Build(context.Background(), "counter")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "build", ApprovalTEAL), res.ApprovalPath)

	approval, err := os.ReadFile(res.ApprovalPath)
	require.NoError(t, err)
	assert.Contains(t, string(approval), "approval.py in counter")

	clearProg, err := os.ReadFile(res.ClearPath)
	require.NoError(t, err)
	assert.Contains(t, string(clearProg), "clear.py in counter")
}

func TestBuildMissingContract(t *testing.T) {
	root := t.TempDir()
	b := newTestBuilder(root, &fakePython{})

	_, err := b.Build(context.Background(), "ghost")
	assert.True(t, errors.Is(err, ErrContractNotFound))

	_, err = b.Build(context.Background(), "../escape")
	assert.True(t, errors.Is(err, ErrContractNotFound))

	dir := filepath.Join(root, "half")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ApprovalSource), nil, 0o644))
	_, err = b.Build(context.Background(), "half")
	assert.True(t, errors.Is(err, ErrContractNotFound))
}

func TestBuildPythonFailure(t *testing.T) {
	root := t.TempDir()
	newContract(t, root, "broken")
	b := newTestBuilder(root, &fakePython{fail: ClearSource})

	_, err := b.Build(context.Background(), "broken")
	var be *BuildError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, ClearSource, be.Source)
	assert.Contains(t, be.Stderr, "NameError")
	assert.NoFileExists(t, filepath.Join(root, "broken", "build", ApprovalTEAL))
}

func TestBuildEmptyOutput(t *testing.T) {
	root := t.TempDir()
	newContract(t, root, "silent")
	_, err := newTestBuilder(root, &fakePython{empty: true}).Build(context.Background(), "silent")
	var be *BuildError
	assert.True(t, errors.As(err, &be))
}

func TestBuildAllContinuesPastFailures(t *testing.T) {
	root := t.TempDir()
	newContract(t, root, "a")
	newContract(t, root, "b")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "not-a-contract"), 0o755))

	b := newTestBuilder(root, &fakePython{})
	names, err := b.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	results, err := b.BuildAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 2)

	b.Runner = &fakePython{fail: ApprovalSource}
	results, err = b.BuildAll(context.Background())
	require.Error(t, err)
	assert.Empty(t, results)
}

func TestListMissingDir(t *testing.T) {
	b := newTestBuilder(filepath.Join(t.TempDir(), "nope"), &fakePython{})
	_, err := b.List()
	assert.True(t, errors.Is(err, ErrContractNotFound))
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	m, err := LoadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, Manifest{}, m)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte(`
extra_pages = 1
args = ["str:init", "int:5"]

[global]
ints = 2
bytes = 1

[local]
ints = 1
`), 0o644))

	m, err = LoadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), m.GlobalSchema().NumUint)
	assert.Equal(t, uint64(1), m.GlobalSchema().NumByteSlice)
	assert.Equal(t, uint64(1), m.LocalSchema().NumUint)
	assert.Equal(t, uint32(1), m.ExtraPages)
	args, err := m.EncodedArgs()
	require.NoError(t, err)
	assert.Equal(t, []byte("init"), args[0])
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 5}, args[1])
}

func TestLoadManifestRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte("args = [\"bogus\"]\n"), 0o644))
	_, err := LoadManifest(dir)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte("[globl]\nints = 1\n"), 0o644))
	_, err = LoadManifest(dir)
	assert.ErrorContains(t, err, "unknown key")
}

func TestLoadAppPrefersBuiltOutput(t *testing.T) {
	root := t.TempDir()
	dir := newContract(t, root, "app")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ApprovalTEAL), []byte("raw approval"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ClearTEAL), []byte("raw clear"), 0o644))

	app, err := LoadApp(dir, "build")
	require.NoError(t, err)
	assert.Equal(t, "raw approval", string(app.Approval))

	b := newTestBuilder(root, &fakePython{})
	_, err = b.Build(context.Background(), "app")
	require.NoError(t, err)

	app, err = LoadApp(dir, "build")
	require.NoError(t, err)
	assert.Contains(t, string(app.Approval), "#pragma version 6")
	assert.Equal(t, filepath.Join(dir, "build", ApprovalTEAL), app.ApprovalPath)
}

func TestLoadAppErrors(t *testing.T) {
	_, err := LoadApp(filepath.Join(t.TempDir(), "missing"), "build")
	assert.True(t, errors.Is(err, ErrContractNotFound))

	_, err = LoadApp(t.TempDir(), "build")
	assert.True(t, errors.Is(err, ErrNoTEAL))
}

func TestWatchRebuildsOnChange(t *testing.T) {
	root := t.TempDir()
	dir := newContract(t, root, "live")
	py := &fakePython{}
	b := newTestBuilder(root, py)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	builds := make(chan error, 8)
	done := make(chan error, 1)
	go func() {
		done <- b.Watch(ctx, "live", 50*time.Millisecond, func(_ *Result, err error) {
			builds <- err
		})
	}()

	select {
	case err := <-builds:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("initial build did not run")
	}

	// Give the watcher time to register before touching the source.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ApprovalSource), []byte("# changed"), 0o644))

	select {
	case err := <-builds:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("rebuild did not run after change")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
	assert.GreaterOrEqual(t, py.count(), 4)
}
