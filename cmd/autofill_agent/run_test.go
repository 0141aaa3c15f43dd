package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommand_MissingFlags(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "run")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "--url is required")
}

func TestRunCommand_MissingProfile(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "run",
		"--url", "https://boards.greenhouse.io/acme/jobs/1")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "--profile is required")
}

func TestRunCommand_MissingAPIKey(t *testing.T) {
	binaryPath := getBinaryPath(t)

	profileFile := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(profileFile,
		[]byte(`{"name": "Dana Smith", "email": "dana@example.com"}`), 0644))

	cmd := exec.Command(binaryPath, "run",
		"--url", "https://boards.greenhouse.io/acme/jobs/1",
		"--profile", profileFile)

	// Filter out GEMINI_API_KEY so the check actually fires
	var env []string
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, "GEMINI_API_KEY=") {
			env = append(env, e)
		}
	}
	cmd.Env = env

	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "GEMINI_API_KEY environment variable or --api-key flag is required")
}

func TestRunCommand_ConfigFileNotFound(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "run", "--config", "/nonexistent/config.json")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "failed to load config")
}

func TestCacheCommand_ListEmpty(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cacheFile := filepath.Join(t.TempDir(), "templates.db")
	cmd := exec.Command(binaryPath, "cache", "list", "--cache-db", cacheFile)

	// Drop DATABASE_URL so the sqlite path is used
	var env []string
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, "DATABASE_URL=") {
			env = append(env, e)
		}
	}
	cmd.Env = env

	output, err := cmd.CombinedOutput()

	assert.NoError(t, err)
	assert.Contains(t, string(output), "TEMPLATE CACHE")
	assert.Contains(t, string(output), "(empty)")
}

func TestVersionCommand(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "version")
	output, err := cmd.CombinedOutput()

	assert.NoError(t, err)
	assert.Contains(t, string(output), "autofill_agent")
}
