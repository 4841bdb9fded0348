package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/export"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leagues() *models.Table {
	t := models.NewTable("id", "name")
	t.AppendRow(map[string]interface{}{"id": json.Number("39"), "name": "Premier League"})
	t.AppendRow(map[string]interface{}{"id": json.Number("45"), "name": "FA Cup"})
	t.AppendRow(map[string]interface{}{"id": json.Number("48"), "name": "League Cup"})
	return t
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"--topic", "leagues", "-f", "England", "--format", "xlsx", "-o", "/tmp/x"})
	require.NoError(t, err)
	assert.Equal(t, "leagues", opts.topic)
	assert.Equal(t, "England", opts.filter)
	assert.Equal(t, "xlsx", opts.format)
	assert.Equal(t, "/tmp/x", opts.out)
	assert.False(t, opts.preview)
	assert.Equal(t, 20, opts.previewRows)
	assert.False(t, opts.envFileSet)

	opts, err = parseFlags([]string{"--topic", "timezone", "--env-file", "dev.env"})
	require.NoError(t, err)
	assert.Equal(t, "dev.env", opts.envFile)
	assert.True(t, opts.envFileSet)

	_, err = parseFlags([]string{"--format", "csv"})
	assert.Error(t, err)
}

func TestRenderPreview(t *testing.T) {
	var buf bytes.Buffer
	renderPreview(&buf, leagues(), 2)

	out := buf.String()
	assert.Contains(t, out, "name")
	assert.Contains(t, out, "Premier League")
	assert.Contains(t, out, "FA Cup")
	assert.NotContains(t, out, "League Cup")
	assert.Contains(t, out, "... 1 more rows")

	buf.Reset()
	renderPreview(&buf, models.NewTable("id"), 0)
	assert.Equal(t, "no rows\n", buf.String())
}

func TestRenderOptions(t *testing.T) {
	var buf bytes.Buffer
	renderOptions(&buf, []models.SubFilterOption{{Label: "Premier League", Value: "39"}})
	assert.Contains(t, buf.String(), "39")
	assert.Contains(t, buf.String(), "Premier League")

	buf.Reset()
	renderOptions(&buf, nil)
	assert.Equal(t, "topic has no sub-filter\n", buf.String())
}

func TestWriteArtifact(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")

	path, err := writeArtifact(dir, &export.Artifact{FileName: "export.csv", Data: []byte("id\n1\n")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "export.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id\n1\n", string(data))
}

func emptyEnvFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("# no overrides\n"), 0o600))
	return path
}

func TestRun_ExportsFile(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/timezone", r.URL.Path)
		w.Write([]byte(`{"get":"timezone","errors":[],"results":2,"response":["Europe/London","Europe/Paris"]}`))
	}))
	defer upstream.Close()

	t.Setenv("APIFOOTBALL_BASE_URL", upstream.URL)
	t.Setenv("APIFOOTBALL_KEY", "test")
	dir := t.TempDir()

	var stdout bytes.Buffer
	err := run(context.Background(), []string{"--topic", "timezone", "--format", "csv", "--out", dir, "--env-file", emptyEnvFile(t)}, &stdout)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout.String(), "wrote "))

	data, err := os.ReadFile(filepath.Join(dir, "export.csv"))
	require.NoError(t, err)
	assert.Equal(t, "timezone\nEurope/London\nEurope/Paris\n", string(data))
}

func TestRun_UnknownTopic(t *testing.T) {
	t.Setenv("APIFOOTBALL_BASE_URL", "http://127.0.0.1:1")
	err := run(context.Background(), []string{"--topic", "players", "--env-file", emptyEnvFile(t)}, &bytes.Buffer{})
	assert.ErrorIs(t, err, models.ErrUnknownTopic)
}

func TestRun_MissingExplicitEnvFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	err := run(context.Background(), []string{"--topic", "timezone", "--env-file", missing}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.env")
}
