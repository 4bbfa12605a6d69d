package options

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResolve_Precedence removes layers one at a time and checks that the
// next broader layer answers.
func TestResolve_Precedence(t *testing.T) {
	set := Set{
		Override: Layer{Edit: "A"},
		Window:   Layer{Edit: "B"},
		Global:   Layer{Edit: "C"},
	}
	assert.Equal(t, "A", set.Resolve(Edit, "D"))

	set.Override = nil
	assert.Equal(t, "B", set.Resolve(Edit, "D"))

	set.Window = nil
	assert.Equal(t, "C", set.Resolve(Edit, "D"))

	set.Global = nil
	assert.Equal(t, "D", set.Resolve(Edit, "D"))
}

// TestResolve_BufferBetweenWindowAndGlobal pins the position of the buffer
// scope in the lookup order.
func TestResolve_BufferBetweenWindowAndGlobal(t *testing.T) {
	set := Set{
		Window: Layer{},
		Buffer: Layer{Split: "vertical"},
		Global: Layer{Split: "horizontal"},
	}
	v, scope, ok := set.Lookup(Split)
	require.True(t, ok)
	assert.Equal(t, "vertical", v)
	assert.Equal(t, ScopeBuffer, scope)

	set.Window[Split] = "horizontal"
	_, scope, _ = set.Lookup(Split)
	assert.Equal(t, ScopeWindow, scope)
}

func TestResolve_Total(t *testing.T) {
	var set Set
	assert.Equal(t, "hg", set.Resolve(Exec, DefaultExec))
	_, scope, ok := set.Lookup("nonexistent")
	assert.False(t, ok)
	assert.Equal(t, ScopeDefault, scope)
}

// TestResolve_EmptyValueIsDefined checks "first defined wins" even when the
// defined value is empty.
func TestResolve_EmptyValueIsDefined(t *testing.T) {
	set := Set{Override: Layer{DiffOpt: ""}, Global: Layer{DiffOpt: "-w"}}
	assert.Equal(t, "", set.Resolve(DiffOpt, "-b"))
}

func TestBool(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"yes", false, true},
		{"On", false, true},
		{"0", true, false},
		{"no", true, false},
		{"garbage", true, true},
		{"garbage", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			set := Set{Global: Layer{NameResultSurfaces: tt.value}}
			assert.Equal(t, tt.want, set.Bool(NameResultSurfaces, tt.def))
		})
	}

	assert.True(t, Set{}.Bool(NameResultSurfaces, true))
}

func TestWithOverrideDoesNotMutate(t *testing.T) {
	base := Set{Global: Layer{Edit: "split"}}
	call := base.WithOverride(Layer{Edit: "reuse"})

	assert.Equal(t, "reuse", call.Resolve(Edit, ""))
	assert.Equal(t, "split", base.Resolve(Edit, ""))
}

func TestScopeString(t *testing.T) {
	assert.Equal(t, "override", ScopeOverride.String())
	assert.Equal(t, "window", ScopeWindow.String())
	assert.Equal(t, "buffer", ScopeBuffer.String())
	assert.Equal(t, "global", ScopeGlobal.String())
	assert.Equal(t, "default", ScopeDefault.String())
}

func TestParseAssignment(t *testing.T) {
	name, value, ok := ParseAssignment("split=vertical")
	require.True(t, ok)
	assert.Equal(t, "split", name)
	assert.Equal(t, "vertical", value)

	name, value, ok = ParseAssignment("diff_opt=-w -b")
	require.True(t, ok)
	assert.Equal(t, "diff_opt", name)
	assert.Equal(t, "-w -b", value)

	_, _, ok = ParseAssignment("novalue")
	assert.False(t, ok)
	_, _, ok = ParseAssignment("=x")
	assert.False(t, ok)
}

// TestLoadGlobal verifies YAML decoding and scalar normalization.
func TestLoadGlobal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
edit: split
split: vertical
name_result_surfaces: true
exec: /usr/local/bin/hg
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	layer, err := LoadGlobal(path)
	require.NoError(t, err)
	assert.Equal(t, Layer{
		Edit:               "split",
		Split:              "vertical",
		NameResultSurfaces: "true",
		Exec:               "/usr/local/bin/hg",
	}, layer)
}

func TestLoadGlobal_MissingFile(t *testing.T) {
	layer, err := LoadGlobal(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, layer)
}

func TestLoadGlobal_RejectsNested(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("split:\n  orientation: vertical\n"), 0o644))

	_, err := LoadGlobal(path)
	assert.Error(t, err)
}

// TestLoadLocal verifies that JSONC comments and trailing commas are
// accepted.
func TestLoadLocal(t *testing.T) {
	path := filepath.Join(t.TempDir(), LocalFileName)
	content := `{
	// use a vertical comparison view in this repo
	"diff_split": "vertical",
	"name_marker": "#",
	"delete_on_hide": false,
	"limit": 5, /* numbers are kept as text */
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	layer, err := LoadLocal(path)
	require.NoError(t, err)
	assert.Equal(t, "vertical", layer[DiffSplit])
	assert.Equal(t, "#", layer[NameMarker])
	assert.Equal(t, "false", layer[DeleteOnHide])
	assert.Equal(t, "5", layer["limit"])
}

func TestLoadLocal_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), LocalFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"edit": `), 0o644))

	_, err := LoadLocal(path)
	assert.Error(t, err)
}

// TestFindLocal walks up from a nested directory.
func TestFindLocal(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "pkg")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Equal(t, "", FindLocal(nested))

	want := filepath.Join(root, LocalFileName)
	require.NoError(t, os.WriteFile(want, []byte("{}"), 0o644))

	got := FindLocal(nested)
	resolvedWant, _ := filepath.EvalSymlinks(want)
	resolvedGot, _ := filepath.EvalSymlinks(got)
	assert.Equal(t, resolvedWant, resolvedGot)
}
