package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/soypat/go-ccpp/dialect"
	"github.com/soypat/go-ccpp/internal/config"
	"github.com/soypat/go-ccpp/ir"
	"github.com/soypat/go-ccpp/meta"
)

const (
	suiteXML = `<suite name="S" version="1.0">
  <group name="physics">
    <scheme>A</scheme>
  </group>
</suite>
`
	schemeA = `[ccpp-table-properties]
  name = A
  type = scheme
[ccpp-arg-table]
  name = A_init
  type = scheme
[ errflg ]
  type = integer
  intent = out
`
	host = `[ccpp-table-properties]
  name = host
  type = module
[ccpp-arg-table]
  name = host
  type = module
[ x ]
  type = real
`
)

func writeInputs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range map[string]string{
		"suite_S.xml": suiteXML,
		"A.meta":      schemeA,
		"host.meta":   host,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var logger *zap.Logger
	cmd := newRootCmd(&logger)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func parseTree(t *testing.T, src string) *ir.Operation {
	t.Helper()
	op, err := ir.Unmarshal("tree.yaml", strings.NewReader(src))
	require.NoError(t, err)
	require.NoError(t, dialect.Verify(op))
	return op
}

func TestRun_flags(t *testing.T) {
	dir := writeInputs(t)
	in := func(name string) string { return filepath.Join(dir, name) }
	out, err := execute(t, "--config", t.TempDir(),
		"--suites", in("suite_S.xml"),
		"--scheme-files", in("A.meta"),
		"--host-files", in("host.meta"))
	require.NoError(t, err)

	op := parseTree(t, out)
	md, err := meta.BuildMetadata(op)
	require.NoError(t, err)
	_, ok := md.Get("A")
	assert.True(t, ok)
	_, ok = md.Get("host")
	assert.True(t, ok)
	suites, err := meta.BuildSuites(op)
	require.NoError(t, err)
	s, ok := suites.Get("S")
	require.True(t, ok)
	assert.Equal(t, []string{"A"}, s.SchemeNames())
}

func TestRun_config(t *testing.T) {
	dir := writeInputs(t)
	content := "suites: [suite_S.xml]\nschemes: [A.meta]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte(content), 0644))
	dst := filepath.Join(t.TempDir(), "tree.yaml")

	out, err := execute(t, "--config", dir, "-o", dst)
	require.NoError(t, err)
	assert.Empty(t, out)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	op := parseTree(t, string(data))
	md, err := meta.BuildMetadata(op)
	require.NoError(t, err)
	assert.Len(t, md.Properties(), 1)
}

func TestRun_errors(t *testing.T) {
	dir := writeInputs(t)
	_, err := execute(t, "--config", t.TempDir())
	assert.ErrorContains(t, err, "no suite files")

	bad := filepath.Join(dir, "bad.meta")
	require.NoError(t, os.WriteFile(bad, []byte("[ccpp-table-properties]\n  name = bad\n  colour = red\n"), 0644))
	_, err = execute(t, "--config", t.TempDir(), "--suites", filepath.Join(dir, "suite_S.xml"), "--scheme-files", bad)
	assert.ErrorContains(t, err, `bad.meta:3:3: unknown key "colour"`)
}
