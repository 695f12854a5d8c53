package ccpp

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soypat/go-ccpp/dialect"
	"github.com/soypat/go-ccpp/meta"
)

const hostMeta = `[ccpp-table-properties]
  name = host
  type = module
[ccpp-arg-table]
  name = host
  type = module
[ ncol ]
  standard_name = horizontal_dimension
  type = integer
`

func writeFiles(t *testing.T, files map[string]string) map[string]string {
	t.Helper()
	dir := t.TempDir()
	paths := make(map[string]string, len(files))
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		paths[name] = p
	}
	return paths
}

func TestProject_Build(t *testing.T) {
	paths := writeFiles(t, map[string]string{
		"S.xml":     suiteXML,
		"A.meta":    schemeA,
		"host.meta": hostMeta,
	})
	prj, err := LoadProject([]string{paths["S.xml"]}, []string{paths["A.meta"]}, []string{paths["host.meta"]})
	require.NoError(t, err)
	require.Len(t, prj.Suites, 1)
	require.Len(t, prj.Schemes, 1)
	require.Len(t, prj.Hosts, 1)

	top, err := prj.Build()
	require.NoError(t, err)
	require.NoError(t, dialect.Verify(top.Operation))
	assert.Equal(t, "", top.SymName())
	ops := top.Body().Ops()
	require.Len(t, ops, 3)
	assert.Equal(t, dialect.Suite, ops[0].Name)
	assert.Equal(t, dialect.TableProperties, ops[1].Name)
	assert.Equal(t, dialect.TableProperties, ops[2].Name)

	md, err := meta.BuildMetadata(top.Operation)
	require.NoError(t, err)
	got, ok := md.Get("A")
	require.True(t, ok)
	// Positions are not persisted in the tree.
	opts := []cmp.Option{
		cmpopts.IgnoreUnexported(meta.TableProperties{}, meta.ArgumentTable{}),
		cmpopts.IgnoreFields(meta.TableProperties{}, "Pos"),
		cmpopts.IgnoreFields(meta.ArgumentTable{}, "Pos"),
		cmpopts.IgnoreFields(meta.Argument{}, "Pos"),
	}
	if diff := cmp.Diff(prj.Schemes[0], got, opts...); diff != "" {
		t.Errorf("recovered metadata mismatch (-want +got):\n%s", diff)
	}

	suites, err := meta.BuildSuites(top.Operation)
	require.NoError(t, err)
	s, ok := suites.Get("S")
	require.True(t, ok)
	if diff := cmp.Diff(prj.Suites[0], s); diff != "" {
		t.Errorf("recovered suite mismatch (-want +got):\n%s", diff)
	}
}

func TestProject_BuildDuplicate(t *testing.T) {
	props, err := ParseMetadata("A.meta", strings.NewReader(schemeA))
	require.NoError(t, err)
	prj := &Project{Schemes: []*meta.TableProperties{props, props}}
	_, err = prj.Build()
	assert.True(t, errors.Is(err, meta.ErrDuplicate), "got %v", err)

	s := &meta.Suite{Name: "S", Groups: []meta.Group{{Name: "g", Schemes: []meta.Scheme{{Name: "A"}}}}}
	prj = &Project{Suites: []*meta.Suite{s, s}}
	_, err = prj.Build()
	assert.True(t, errors.Is(err, meta.ErrDuplicate), "got %v", err)
}

func TestLoadProject_joinsErrors(t *testing.T) {
	paths := writeFiles(t, map[string]string{
		"bad1.meta": "[ccpp-table-properties]\n  colour = red\n",
		"bad2.meta": "  name = x\n",
	})
	_, err := LoadProject(nil, []string{paths["bad1.meta"], paths["bad2.meta"]}, []string{filepath.Join(t.TempDir(), "missing.meta")})
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "bad1.meta:2:3")
	assert.Contains(t, msg, "bad2.meta:1:3")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
