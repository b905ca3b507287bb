package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
name: module exam
total_questions: 10
difficulty_distribution:
  easy: 50
  hard: 50
owner_distribution:
  A: 50
  B: 50
passing_score: 60
scope:
  kind: formation
  id: F-1
`

type harness struct {
	dir    string
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{dir: t.TempDir()}
}

func (h *harness) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(h.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (h *harness) run(args ...string) int {
	h.stdout.Reset()
	h.stderr.Reset()
	a := &app{
		stdout: &h.stdout,
		stderr: &h.stderr,
		json:   true,
		dbPath: filepath.Join(h.dir, "planner.db"),
		log:    zerolog.Nop(),
	}
	return a.run(context.Background(), args)
}

// questionBank writes n easy and n hard questions for each owner.
func questionBank(owners map[string][2]int) string {
	var b strings.Builder
	b.WriteString("questions:\n")
	for owner, counts := range owners {
		for i := range counts[0] {
			fmt.Fprintf(&b, "  - {id: %s-easy-%d, difficulty: easy, owner_key: %s, points: 1}\n", owner, i, owner)
		}
		for i := range counts[1] {
			fmt.Fprintf(&b, "  - {id: %s-hard-%d, difficulty: hard, owner_key: %s, points: 2}\n", owner, i, owner)
		}
	}
	return b.String()
}

func TestValidate(t *testing.T) {
	h := newHarness(t)
	cfg := h.write(t, "cfg.yaml", testConfig)

	assert.Equal(t, exitOK, h.run("validate", "-config", cfg))
	assert.Contains(t, h.stdout.String(), `"valid": true`)

	bad := h.write(t, "bad.yaml", strings.Replace(testConfig, "hard: 50", "hard: 40", 1))
	assert.Equal(t, exitError, h.run("validate", "-config", bad))
	assert.Contains(t, h.stderr.String(), "distribution does not sum to 100")

	assert.Equal(t, exitError, h.run("validate"))
	assert.Contains(t, h.stderr.String(), "flag -config is required")
}

func TestPlan(t *testing.T) {
	h := newHarness(t)
	cfg := h.write(t, "cfg.yaml", testConfig)
	full := h.write(t, "full.yaml", questionBank(map[string][2]int{"A": {5, 5}, "B": {5, 5}}))

	require.Equal(t, exitOK, h.run("plan", "-config", cfg, "-questions", full, "-seed", "7"), h.stderr.String())
	var out struct {
		Status      string   `json:"status"`
		Seed        int64    `json:"seed"`
		Supplied    int      `json:"supplied"`
		QuestionIDs []string `json:"question_ids"`
	}
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &out))
	assert.Equal(t, "SATISFIED", out.Status)
	assert.Equal(t, int64(7), out.Seed)
	assert.Equal(t, 10, out.Supplied)
	first := out.QuestionIDs

	require.Equal(t, exitOK, h.run("plan", "-config", cfg, "-questions", full, "-seed", "7"))
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &out))
	assert.Equal(t, first, out.QuestionIDs, "same seed, same plan")

	// B has a single hard question against a target of 2.
	short := h.write(t, "short.yaml", questionBank(map[string][2]int{"A": {5, 5}, "B": {5, 1}}))
	assert.Equal(t, exitPartial, h.run("plan", "-config", cfg, "-questions", short))

	// No hard questions at all makes the hard bucket unknown.
	easy := h.write(t, "easy.yaml", questionBank(map[string][2]int{"A": {5, 0}, "B": {5, 0}}))
	assert.Equal(t, exitError, h.run("plan", "-config", cfg, "-questions", easy))
	assert.Contains(t, h.stderr.String(), "unknown bucket")
}

func TestPlanTextOutput(t *testing.T) {
	h := newHarness(t)
	cfg := h.write(t, "cfg.yaml", testConfig)
	full := h.write(t, "full.yaml", questionBank(map[string][2]int{"A": {5, 5}, "B": {5, 5}}))

	a := &app{stdout: &h.stdout, stderr: &h.stderr, log: zerolog.Nop()}
	require.Equal(t, exitOK, a.run(context.Background(), []string{"plan", "-config", cfg, "-questions", full}))
	text := h.stdout.String()
	assert.Contains(t, text, "SATISFIED")
	assert.Contains(t, text, "A/easy")
	assert.Contains(t, text, "supplied  10 of 10")
}

func TestSaveLoadList(t *testing.T) {
	h := newHarness(t)
	cfg := h.write(t, "cfg.yaml", testConfig)

	require.Equal(t, exitOK, h.run("save", "-config", cfg), h.stderr.String())
	var saved struct {
		ID      string `json:"id"`
		Version int    `json:"version"`
	}
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &saved))
	require.NotEmpty(t, saved.ID)
	assert.Equal(t, 1, saved.Version)

	require.Equal(t, exitOK, h.run("load", "-id", saved.ID))
	var loaded map[string]any
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &loaded))
	assert.Equal(t, "module exam", loaded["name"])

	// Saving again with the loaded id and version bumps the version.
	updated := h.write(t, "updated.yaml", fmt.Sprintf("id: %s\nversion: 1\n%s", saved.ID, testConfig))
	require.Equal(t, exitOK, h.run("save", "-config", updated), h.stderr.String())
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &saved))
	assert.Equal(t, 2, saved.Version)

	// The stale version is now a conflict.
	assert.Equal(t, exitError, h.run("save", "-config", updated))
	assert.Contains(t, h.stderr.String(), "modified concurrently")

	require.Equal(t, exitOK, h.run("list"))
	assert.Contains(t, h.stdout.String(), saved.ID)

	assert.Equal(t, exitError, h.run("load", "-id", "missing"))
	assert.Contains(t, h.stderr.String(), "configuration not found")
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, exitError, h.run("explode"))
	assert.Contains(t, h.stderr.String(), "Usage: planctl")

	assert.Equal(t, exitError, h.run())
}
