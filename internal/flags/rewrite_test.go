package flags

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestRewriteRelativePaths(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		wd   string
		want []string
	}{
		{"separate include", []string{"-I", "include"}, "/proj", []string{"-I", "/proj/include"}},
		{"attached include", []string{"-Iinclude"}, "/proj", []string{"-I/proj/include"}},
		{"define untouched", []string{"-DFOO"}, "/proj", []string{"-DFOO"}},
		{"absolute separate", []string{"-I", "/usr/include"}, "/proj", []string{"-I", "/usr/include"}},
		{"absolute attached", []string{"-I/usr/include"}, "/proj", []string{"-I/usr/include"}},
		{"isystem separate", []string{"-isystem", "third_party"}, "/proj", []string{"-isystem", "/proj/third_party"}},
		{"isystem attached", []string{"-isystemvendor"}, "/proj", []string{"-isystem/proj/vendor"}},
		{"iquote attached", []string{"-iquotesrc"}, "/proj", []string{"-iquote/proj/src"}},
		{"sysroot attached", []string{"--sysroot=sdk"}, "/proj", []string{"--sysroot=/proj/sdk"}},
		{"sysroot separate", []string{"--sysroot=", "sdk"}, "/proj", []string{"--sysroot=", "/proj/sdk"}},
		{"sysroot absolute", []string{"--sysroot=/opt/sdk"}, "/proj", []string{"--sysroot=/opt/sdk"}},
		{"dot segments cleaned", []string{"-I../common"}, "/proj/app", []string{"-I/proj/common"}},
		{"trailing marker", []string{"-Wall", "-I"}, "/proj", []string{"-Wall", "-I"}},
		{"path token is not rescanned", []string{"-I", "-Ifoo"}, "/proj", []string{"-I", "/proj/-Ifoo"}},
		{"empty flag kept", []string{"", "-DX"}, "/proj", []string{"", "-DX"}},
		{"empty path after marker", []string{"-I", ""}, "/proj", []string{"-I", "/proj"}},
		{
			"mixed",
			[]string{"-Wall", "-std=c++11", "-I", "a", "-Ib", "-isystem", "/usr/c", "-DNDEBUG"},
			"/w",
			[]string{"-Wall", "-std=c++11", "-I", "/w/a", "-I/w/b", "-isystem", "/usr/c", "-DNDEBUG"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := RewriteRelativePaths(test.in, test.wd)
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("RewriteRelativePaths(%q, %q) mismatch (-want +got):\n%s", test.in, test.wd, diff)
			}
		})
	}
}

func TestRewriteEmptyWorkingDirIsIdentity(t *testing.T) {
	in := []string{"-I", "include", "-Isrc", "--sysroot=sdk", "-DFOO", ""}
	got := RewriteRelativePaths(in, "")
	assert.Equal(t, in, got)

	// The result must not alias the input.
	got[0] = "changed"
	assert.Equal(t, "-I", in[0])
}

func TestRewritePathArgumentsAreAbsolute(t *testing.T) {
	inputs := [][]string{
		{"-I", "a", "-Ib", "-isystem", "c", "-isystemd", "-iquote", "e", "-iquotef", "--sysroot=g"},
		{"-I", "/abs", "-I", "../up", "-I.", "-iquote", "./x"},
		{"-DFOO", "-I", "", "-Wall", "-isystem"},
	}
	for _, in := range inputs {
		out := RewriteRelativePaths(in, "/root/dir")
		assert.Len(t, out, len(in))
		expect := false
		for _, f := range out {
			if expect {
				assert.True(t, filepath.IsAbs(f), "path argument %q in %q", f, out)
				expect = false
				continue
			}
			if _, attached, ok := MatchMarker(f); ok {
				if attached == "" {
					expect = true
				} else {
					assert.True(t, filepath.IsAbs(attached), "attached path %q in %q", attached, out)
				}
			}
		}
	}
}

func TestMatchMarkerOrder(t *testing.T) {
	marker, attached, ok := MatchMarker("-isystem/usr/include")
	assert.True(t, ok)
	assert.Equal(t, "-isystem", marker)
	assert.Equal(t, "/usr/include", attached)

	_, _, ok = MatchMarker("-Wall")
	assert.False(t, ok)
}
