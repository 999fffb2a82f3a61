package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommands_ApplyThenInspect(t *testing.T) {
	dir := t.TempDir()
	store := []string{
		"--config", filepath.Join(dir, "absent.yaml"),
		"--store", "loam",
		"--dir", filepath.Join(dir, "agents"),
		"--log-level", "error",
	}
	with := func(args ...string) []string {
		return append(append([]string{}, args...), store...)
	}

	script := filepath.Join(dir, "edit.yaml")
	require.NoError(t, os.WriteFile(script, []byte(`
- op: add_state
  as: faq
- op: rename_state
  state: $faq
  new_name: faq
- op: set_prompt
  state: faq
  prompt: Ask me anything.
- op: add_transition
  source: N1
  target: faq
  description: has a question
`), 0644))

	out, err := run(t, with("apply", "support", script)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Added: faq")
	assert.Contains(t, out, "Modified: N1")

	out, err = run(t, with("graph", "support", "--highlight", "faq")...)
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, `-- "has a question" -->`)
	assert.Contains(t, out, "classDef highlighted")

	out, err = run(t, with("show", "support", "--plain")...)
	require.NoError(t, err)
	assert.Contains(t, out, "## faq")
	assert.Contains(t, out, "> Ask me anything.")

	out, err = run(t, with("validate", "support")...)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")

	out, err = run(t, with("apply", "support", script)...)
	require.Error(t, err, "second run collides with the existing faq state")
	assert.Empty(t, out)
}

func TestCommands_InvalidConfig(t *testing.T) {
	_, err := run(t, "validate", "support", "--config", filepath.Join(t.TempDir(), "absent.yaml"), "--store", "etcd")
	assert.Error(t, err)
}
