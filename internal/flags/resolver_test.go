package flags

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ycmflags/internal/compdb"
	"ycmflags/internal/config"
	"ycmflags/internal/model"
)

type fakeDB struct {
	mu      sync.Mutex
	entries map[string]compdb.Info
	lookups int
}

func (db *fakeDB) CompilationInfo(file string) (compdb.Info, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.lookups++
	info, ok := db.entries[file]
	return info, ok
}

// blockingDB parks every lookup until release is closed.
type blockingDB struct {
	info    compdb.Info
	entered chan struct{}
	release chan struct{}
}

func (db *blockingDB) CompilationInfo(string) (compdb.Info, bool) {
	db.entered <- struct{}{}
	<-db.release
	return db.info, true
}

func parseConfig(t *testing.T, data, dir string) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(data), dir)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestResolveStaticMode(t *testing.T) {
	cfg := parseConfig(t, `flags = ["-Wall", "-I", "include", "-Ilib", "-DNDEBUG"]`, "/proj")
	r := New(cfg)

	want := []string{"-Wall", "-I", "/proj/include", "-I/proj/lib", "-DNDEBUG"}
	for _, file := range []string{"/proj/main.cpp", "relative.cc", "/elsewhere/x.h", ""} {
		got := r.ResolveFlags(file)
		assert.True(t, got.DoCache)
		if diff := cmp.Diff(want, got.Flags); diff != "" {
			t.Errorf("ResolveFlags(%q) mismatch (-want +got):\n%s", file, diff)
		}
	}
}

func TestResolveStaticSets(t *testing.T) {
	cfg := parseConfig(t, `
flags = ["-Wall"]
use_sets = ["gl", "mine"]

[sets.mine]
flags = ["-isystem", "vendor"]
`, "/proj")
	res := New(cfg).Resolve("/proj/a.cpp")
	assert.Equal(t, model.SourceStatic, res.Source)
	assert.Equal(t, "/proj", res.WorkingDir)
	assert.Equal(t, []string{"-Wall", "-DGL_GLEXT_PROTOTYPES", "-isystem", "/proj/vendor"}, res.Flags)
}

func TestResolveRules(t *testing.T) {
	cfg := parseConfig(t, `
flags = ["-Wall"]

[[rules]]
pattern = "src/render/**"
sets = ["gl"]
`, "/proj")
	r := New(cfg)

	assert.Equal(t, []string{"-Wall", "-DGL_GLEXT_PROTOTYPES"}, r.ResolveFlags("/proj/src/render/mesh.cpp").Flags)
	assert.Equal(t, []string{"-Wall", "-DGL_GLEXT_PROTOTYPES"}, r.ResolveFlags("src/render/gl/shader.cpp").Flags)
	assert.Equal(t, []string{"-Wall"}, r.ResolveFlags("/proj/src/main.cpp").Flags)
	assert.Equal(t, []string{"-Wall"}, r.ResolveFlags("/other/src/render/mesh.cpp").Flags)
}

func TestResolveDatabaseMode(t *testing.T) {
	cfg := parseConfig(t, `flags = ["-DSTATIC"]`, "/proj")
	db := &fakeDB{entries: map[string]compdb.Info{
		"/proj/src/a.cpp": {
			Flags:      []string{"-std=c++17", "-I", "../include", "-isystemthird_party", "-DA"},
			WorkingDir: "/proj/build",
		},
	}}
	r := New(cfg, WithDatabase(db))
	require.True(t, r.HasDatabase())

	res := r.Resolve("/proj/src/a.cpp")
	assert.Equal(t, model.SourceDatabase, res.Source)
	assert.Equal(t, "/proj/build", res.WorkingDir)
	assert.True(t, res.DoCache)
	assert.Equal(t, []string{"-std=c++17", "-I", "/proj/include", "-isystem/proj/build/third_party", "-DA"}, res.Flags)
	assert.Equal(t, []string{"-std=c++17", "-I", "../include", "-isystemthird_party", "-DA"}, res.Original)
}

func TestResolveDatabaseMissFallsBackToStatic(t *testing.T) {
	cfg := parseConfig(t, `flags = ["-DSTATIC", "-Iinc"]`, "/proj")
	r := New(cfg, WithDatabase(&fakeDB{}))

	res := r.Resolve("/proj/unknown.cpp")
	assert.Equal(t, model.SourceStatic, res.Source)
	assert.Equal(t, []string{"-DSTATIC", "-I/proj/inc"}, res.Flags)
}

func TestResolveEmptyDatabaseWorkingDir(t *testing.T) {
	cfg := parseConfig(t, `flags = []`, "/proj")
	db := &fakeDB{entries: map[string]compdb.Info{
		"a.c": {Flags: []string{"-I", "rel"}},
	}}
	res := New(cfg, WithDatabase(db)).Resolve("a.c")
	assert.Equal(t, []string{"-I", "rel"}, res.Flags)
}

func TestResolveRemoveFlags(t *testing.T) {
	cfg := parseConfig(t, `
flags = ["-Wall", "-stdlib=libc++", "-Werror"]
remove_flags = ["-stdlib=libc++", "-Werror"]
`, "/proj")
	res := New(cfg).Resolve("x.cpp")
	assert.Equal(t, []string{"-Wall"}, res.Flags)
	assert.Equal(t, []string{"-stdlib=libc++", "-Werror"}, res.Removed)
}

func TestResolveSystemIncludes(t *testing.T) {
	cfg := parseConfig(t, `flags = ["-Wall"]`, "/proj")
	r := New(cfg, WithSystemIncludes([]string{"/usr/include/c++/13", "/usr/include"}))
	assert.Equal(t,
		[]string{"-Wall", "-isystem", "/usr/include/c++/13", "-isystem", "/usr/include"},
		r.ResolveFlags("a.cpp").Flags)
}

func TestResolveDoesNotMutateConfig(t *testing.T) {
	cfg := parseConfig(t, `flags = ["-I", "include"]`, "/proj")
	r := New(cfg)
	r.ResolveFlags("a.cpp")
	r.ResolveFlags("b.cpp")
	assert.Equal(t, []string{"-I", "include"}, cfg.Flags)
}

func TestCachingResolver(t *testing.T) {
	cfg := parseConfig(t, `flags = []`, "/proj")
	db := &fakeDB{entries: map[string]compdb.Info{
		"/proj/a.cpp": {Flags: []string{"-Iinc"}, WorkingDir: "/proj"},
	}}
	c, err := NewCachingResolver(New(cfg, WithDatabase(db)), 8)
	require.NoError(t, err)

	first := c.ResolveFlags("/proj/a.cpp")
	second := c.ResolveFlags("/proj/a.cpp")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, db.lookups)
	assert.Equal(t, 1, c.Len())

	db2 := &fakeDB{entries: map[string]compdb.Info{
		"/proj/a.cpp": {Flags: []string{"-Inew"}, WorkingDir: "/proj"},
	}}
	c.Swap(New(cfg, WithDatabase(db2)))
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, []string{"-I/proj/new"}, c.ResolveFlags("/proj/a.cpp").Flags)
	assert.Equal(t, 1, db2.lookups)
}

func TestCachingResolverSwapDuringLookup(t *testing.T) {
	cfg := parseConfig(t, `flags = []`, "/proj")
	old := &blockingDB{
		info:    compdb.Info{Flags: []string{"-Iold"}, WorkingDir: "/proj"},
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	c, err := NewCachingResolver(New(cfg, WithDatabase(old)), 8)
	require.NoError(t, err)

	lookup := make(chan model.Result, 1)
	go func() { lookup <- c.ResolveFlags("/proj/a.cpp") }()
	<-old.entered

	db2 := &fakeDB{entries: map[string]compdb.Info{
		"/proj/a.cpp": {Flags: []string{"-Inew"}, WorkingDir: "/proj"},
	}}
	swapped := make(chan struct{})
	go func() {
		c.Swap(New(cfg, WithDatabase(db2)))
		close(swapped)
	}()
	// Give Swap a chance to run while the first lookup is still in flight.
	time.Sleep(20 * time.Millisecond)
	close(old.release)

	assert.Equal(t, []string{"-I/proj/old"}, (<-lookup).Flags)
	<-swapped

	assert.Equal(t, []string{"-I/proj/new"}, c.ResolveFlags("/proj/a.cpp").Flags)
	assert.Equal(t, 1, db2.lookups)
}

func TestCachingResolverConcurrent(t *testing.T) {
	cfg := parseConfig(t, `flags = ["-Iinc"]`, "/proj")
	c, err := NewCachingResolver(New(cfg), 4)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			file := filepath.Join("/proj", string(rune('a'+i%6))+".cpp")
			assert.Equal(t, []string{"-I/proj/inc"}, c.ResolveFlags(file).Flags)
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 4)
}

func TestNewCachingResolverRejectsBadSize(t *testing.T) {
	cfg := parseConfig(t, `flags = []`, "/proj")
	_, err := NewCachingResolver(New(cfg), 0)
	assert.Error(t, err)
}

func TestOpenLoadsDatabase(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.cpp")
	db := `[{"directory": "` + dir + `", "file": "main.cpp", "arguments": ["clang++", "-Iinclude", "-c", "main.cpp", "-o", "main.o"]}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, compdb.FileName), []byte(db), 0o644))

	cfg := parseConfig(t, `compilation_database_folder = "`+dir+`"`, dir)
	r, err := Open(t.Context(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"-I" + filepath.Join(dir, "include")}, r.ResolveFlags(src).Flags)
}

func TestOpenMissingDatabase(t *testing.T) {
	dir := t.TempDir()
	cfg := parseConfig(t, `compilation_database_folder = "missing"`, dir)
	_, err := Open(t.Context(), cfg, nil)
	assert.Error(t, err)
}
