package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/dynaprompt/pkg/dynaprompt"
	"github.com/randalmurphal/dynaprompt/pkg/dynaprompt/batch"
	"github.com/randalmurphal/dynaprompt/pkg/dynaprompt/config"
)

// run executes the CLI with args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(config.EnvWildcardDir, "")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// vocabDir creates a wildcard directory with a colors vocabulary.
func vocabDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "colors.txt"), []byte("red\nblue\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "animals"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "animals", "cats.txt"), []byte("tabby_cat\n"), 0o644))
	return dir
}

func TestGenerateCmd(t *testing.T) {
	dir := vocabDir(t)

	out, _, err := run(t, "generate", "--wildcard-dir", dir, "-n", "5", "a {x|y} __colors__ hat")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	for _, line := range lines {
		assert.Regexp(t, `^a (x|y) (red|blue) hat$`, line)
	}
}

func TestGenerateCmd_SeedAndUnderscores(t *testing.T) {
	dir := vocabDir(t)
	args := []string{"generate", "--wildcard-dir", dir, "-n", "4", "--seed", "9", "--replace-underscores", "{a|b|c|d} __animals*cats__"}

	first, _, err := run(t, args...)
	require.NoError(t, err)
	second, _, err := run(t, args...)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "tabby cat")
	assert.NotContains(t, first, "_")
}

func TestGenerateCmd_Errors(t *testing.T) {
	dir := vocabDir(t)

	t.Run("unknown wildcard", func(t *testing.T) {
		_, _, err := run(t, "generate", "--wildcard-dir", dir, "__colr__")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "did you mean colors?")
	})

	t.Run("bad count", func(t *testing.T) {
		_, _, err := run(t, "generate", "--wildcard-dir", dir, "-n", "0", "x")
		require.Error(t, err)
	})

	t.Run("missing template", func(t *testing.T) {
		_, _, err := run(t, "generate")
		require.Error(t, err)
	})
}

func TestBatchCmd_Text(t *testing.T) {
	dir := vocabDir(t)

	out, _, err := run(t, "batch", "--wildcard-dir", dir, "-n", "5", "--batch-size", "2", "--seed", "100", "__colors__")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[0], "5 prompts in 3 batches of 2")
	assert.Regexp(t, `^100\t(red|blue)$`, lines[1])
	assert.Regexp(t, `^104\t(red|blue)$`, lines[5])
}

func TestBatchCmd_JSON(t *testing.T) {
	dir := vocabDir(t)

	out, _, err := run(t, "batch", "--wildcard-dir", dir, "-n", "3", "--seed", "7",
		"--subseed-strength", "0.5", "--format", "json", "{x|y}")
	require.NoError(t, err)

	var plan batch.Plan
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	assert.Equal(t, []int64{7, 7, 7}, plan.Seeds)
	assert.Equal(t, 3, plan.Batches)
	assert.True(t, plan.DoNotSaveGrid)
	assert.Equal(t, "{x|y}", plan.DisplayPrompt)
	assert.Len(t, plan.Prompts, 3)
}

func TestBatchCmd_YAMLWithSettingsFile(t *testing.T) {
	dir := vocabDir(t)
	cfgPath := filepath.Join(t.TempDir(), "dynaprompt.toml")
	require.NoError(t, os.WriteFile(cfgPath,
		[]byte("wildcard_dir = \""+filepath.ToSlash(dir)+"\"\nbatch_size = 4\nseed = 20\n"), 0o644))

	out, _, err := run(t, "batch", "--config", cfgPath, "-n", "6", "--format", "yaml", "__colors__")
	require.NoError(t, err)

	var plan batch.Plan
	require.NoError(t, yaml.Unmarshal([]byte(out), &plan))
	assert.Equal(t, 2, plan.Batches)
	assert.Equal(t, 4, plan.BatchSize)
	assert.Equal(t, int64(20), plan.Seeds[0])
	assert.Equal(t, int64(25), plan.Seeds[5])
}

func TestBatchCmd_UnknownFormat(t *testing.T) {
	_, _, err := run(t, "batch", "--wildcard-dir", t.TempDir(), "--format", "xml", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestListCmd(t *testing.T) {
	dir := vocabDir(t)

	out, _, err := run(t, "list", "--wildcard-dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "__animals/cats__\n__colors__\n", out)

	empty, _, err := run(t, "list", "--wildcard-dir", filepath.Join(t.TempDir(), "new"))
	require.NoError(t, err)
	assert.Contains(t, empty, "no wildcards in")
}

func TestVersionCmd(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dynaprompt "+dynaprompt.Version)

	out, _, err = run(t, "version", "--json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, dynaprompt.Version, info["version"])
}

func TestLogFlags(t *testing.T) {
	dir := vocabDir(t)
	logPath := filepath.Join(t.TempDir(), "dynaprompt.log")

	_, stderr, err := run(t, "generate", "-vv", "--log-file", logPath, "--wildcard-dir", dir, "{3$$a|b}")
	require.NoError(t, err)
	assert.Contains(t, stderr, "combination count out of range")
	assert.Contains(t, stderr, "expansion round")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"combination count out of range"`)
}

func TestPrintFromFile(t *testing.T) {
	dir := vocabDir(t)
	tmpl := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(tmpl, []byte("  __colors__ sky\n"), 0o644))

	gen := dynaprompt.NewFromSettings(config.Settings{WildcardDir: dir, MaxRounds: 20})
	var out bytes.Buffer
	require.NoError(t, printFromFile(context.Background(), &out, gen, tmpl, 2))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "--- "+tmpl, lines[0])
	assert.Regexp(t, `^(red|blue) sky$`, lines[1])

	err := printFromFile(context.Background(), &out, gen, filepath.Join(dir, "missing.txt"), 1)
	assert.ErrorContains(t, err, "read template")
}
