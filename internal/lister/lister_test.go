package lister

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/srcpaths/internal/types"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s: %s", strings.Join(args, " "), out)
}

func setupRepo(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))
	runGit(t, dir, "init", "-q")
	for _, f := range files {
		full := filepath.Join(dir, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte("-module(x).\n"), 0o644))
	}
	if len(files) > 0 {
		runGit(t, dir, append([]string{"add", "--"}, files...)...)
	}
	return dir
}

func TestStatic_List(t *testing.T) {
	s := NewStatic("a.erl", "b.py", "dir/c.erl")

	listing, err := s.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "a.erl\nb.py\ndir/c.erl\n", string(listing.Stdout))
	assert.Zero(t, listing.ExitCode)
	assert.Empty(t, listing.Stderr)
	assert.Equal(t, 1, s.Calls())
}

func TestStatic_Failure(t *testing.T) {
	s := &Static{ExitCode: 128, Stderr: "fatal: not a git repository"}

	listing, err := s.List(context.Background())
	require.NoError(t, err)

	assert.Empty(t, listing.Stdout)
	assert.Equal(t, 128, listing.ExitCode)
	assert.Equal(t, "fatal: not a git repository", string(listing.Stderr))
}

func TestStatic_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStatic("a.erl").List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFunc_List(t *testing.T) {
	want := types.Listing{Stdout: []byte("x.erl\n")}
	f := Func(func(context.Context) (types.Listing, error) { return want, nil })

	got, err := f.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGit_Args(t *testing.T) {
	g := NewGit("", "", 0)
	assert.Equal(t, []string{"-c", "core.quotePath=false", "ls-files", "--full-name", "--", ":/"}, g.Args())
	assert.Equal(t, "git", g.binary())
}

func TestGit_ListsTrackedFiles(t *testing.T) {
	requireGit(t)
	dir := setupRepo(t, "src/b.erl", "a.erl", "README.md")

	// Untracked files must not appear.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "untracked.erl"), nil, 0o644))

	listing, err := NewGit("", dir, 0).List(context.Background())
	require.NoError(t, err)

	assert.Zero(t, listing.ExitCode)
	assert.Equal(t, "README.md\na.erl\nsrc/b.erl\n", string(listing.Stdout))
}

func TestGit_ListsWholeIndexFromSubdirectory(t *testing.T) {
	requireGit(t)
	dir := setupRepo(t, "top.erl", "src/couch/c.erl")

	listing, err := NewGit("", filepath.Join(dir, "src"), 0).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "src/couch/c.erl\ntop.erl\n", string(listing.Stdout))
}

func TestTopLevel(t *testing.T) {
	requireGit(t)
	dir := setupRepo(t, "src/couch/c.erl")

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	for _, sub := range []string{"", "src", filepath.Join("src", "couch")} {
		t.Run("from "+sub, func(t *testing.T) {
			top, err := TopLevel(context.Background(), "", filepath.Join(dir, sub))
			require.NoError(t, err)

			got, err := filepath.EvalSymlinks(top)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestTopLevel_OutsideRepository(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))

	_, err := TopLevel(context.Background(), "", dir)
	assert.ErrorContains(t, err, "not a git repository")
}

func TestListingFrom(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	t.Run("completed listing survives later cancellation", func(t *testing.T) {
		listing, err := listingFrom(canceled, nil, []byte("a.erl\n"), nil)
		require.NoError(t, err)
		assert.Equal(t, "a.erl\n", string(listing.Stdout))
		assert.Zero(t, listing.ExitCode)
	})

	t.Run("failed process under canceled context", func(t *testing.T) {
		_, err := listingFrom(canceled, errors.New("signal: killed"), nil, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("non-exit failure", func(t *testing.T) {
		_, err := listingFrom(context.Background(), errors.New("broken pipe"), nil, nil)
		assert.ErrorContains(t, err, "broken pipe")
	})
}

func TestGit_UnicodePathsAreNotQuoted(t *testing.T) {
	requireGit(t)
	dir := setupRepo(t, "módulo.erl")

	listing, err := NewGit("", dir, 0).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "módulo.erl\n", string(listing.Stdout))
}

func TestGit_OutsideRepository(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", filepath.Dir(dir))

	listing, err := NewGit("", dir, 0).List(context.Background())
	require.NoError(t, err)

	assert.NotZero(t, listing.ExitCode)
	assert.Empty(t, listing.Stdout)
	assert.Contains(t, string(listing.Stderr), "not a git repository")
}

func TestGit_MissingBinary(t *testing.T) {
	_, err := NewGit("srcpaths-no-such-git-binary", t.TempDir(), 0).List(context.Background())
	require.Error(t, err)

	var launchErr *LaunchError
	require.True(t, errors.As(err, &launchErr))
	assert.Equal(t, "srcpaths-no-such-git-binary", launchErr.Command)
	assert.ErrorIs(t, err, exec.ErrNotFound)
}
