package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/infrastructure/config"
	"github.com/GriffinCanCode/playground/internal/infrastructure/logging"
	"github.com/GriffinCanCode/playground/internal/infrastructure/server"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunFile(t *testing.T) {
	path := writeFile(t, "hello.js", "console.log('hi'); console.error('bad')")

	out, err := execute(t, "", "run", "--hints=false", path)
	require.NoError(t, err)
	assert.Contains(t, out, "hi\n")
	assert.Contains(t, out, "ERROR: bad")
}

func TestRunStdinJSON(t *testing.T) {
	out, err := execute(t, "console.warn('w'); setTimeout(() => console.log('later'), 5); return 7", "run", "--json")
	require.NoError(t, err)

	var report struct {
		State   string `json:"state"`
		Entries []struct {
			Kind string `json:"kind"`
			Text string `json:"text"`
		} `json:"entries"`
		Outcome struct {
			JSON string `json:"json"`
		} `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "succeeded", report.State)
	assert.Equal(t, "7", report.Outcome.JSON)
	require.Len(t, report.Entries, 2)
	assert.Equal(t, "warning", report.Entries[0].Kind)
	assert.Equal(t, "later", report.Entries[1].Text)
}

func TestRunHints(t *testing.T) {
	out, err := execute(t, "1", "run", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Running your code")
	assert.Contains(t, out, "executed successfully")
}

func TestRunFailure(t *testing.T) {
	out, err := execute(t, "throw new RangeError('too far')", "run", "--hints=false")
	assert.ErrorIs(t, err, errRunFailed)
	assert.Contains(t, out, "RangeError: too far")
}

func TestRunSnippet(t *testing.T) {
	out, err := execute(t, "", "run", "--snippet", "react-playground")
	require.NoError(t, err)
	assert.Contains(t, out, "render")
	assert.Contains(t, out, "<h2>Hello, React!</h2>")
}

func TestRunSnippetErrors(t *testing.T) {
	_, err := execute(t, "", "run", "--snippet", "react-playground", "--profile", "script")
	assert.ErrorContains(t, err, "needs profile react")

	_, err = execute(t, "", "run", "--snippet", "nope")
	assert.Error(t, err)

	_, err = execute(t, "", "run", "--snippet", "es6-classes", "file.js")
	assert.ErrorContains(t, err, "mutually exclusive")

	_, err = execute(t, "1", "run", "--profile", "vue")
	assert.ErrorContains(t, err, "unknown profile")
}

func TestRunRejectsBinary(t *testing.T) {
	path := writeFile(t, "image.png", "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	_, err := execute(t, "", "run", path)
	assert.ErrorContains(t, err, "not text")
}

func TestSnippets(t *testing.T) {
	out, err := execute(t, "", "snippets")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "redux-counter")
	assert.Contains(t, out, "es6-classes")

	out, err = execute(t, "", "snippets", "--profile", "redux")
	require.NoError(t, err)
	assert.Contains(t, out, "redux-counter")
	assert.NotContains(t, out, "es6-classes")

	out, err = execute(t, "", "snippets", "redux-counter")
	require.NoError(t, err)
	assert.Contains(t, out, "Redux.createStore")
}

func TestSnippetsExtraCatalog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.yaml"), []byte(`snippets:
  - id: extra-hello
    title: Extra
    source: console.log('extra')
`), 0o644))

	out, err := execute(t, "", "snippets", "--catalog", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "extra-hello")

	out, err = execute(t, "", "run", "--catalog", dir, "--snippet", "extra-hello", "--hints=false")
	require.NoError(t, err)
	assert.Contains(t, out, "extra")
}

func TestRemote(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimit.Enabled = false
	cfg.Engine.PoolSize = 1
	cfg.Engine.Hints = false
	srv, err := server.New(cfg, logging.Nop(), prometheus.NewRegistry())
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	defer func() {
		ts.Close()
		srv.Close(context.Background())
	}()

	out, err := execute(t, "", "remote", "health", "--addr", ts.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "healthy")

	out, err = execute(t, "", "remote", "run", "--addr", ts.URL, "--snippet", "redux-counter")
	require.NoError(t, err)
	assert.Contains(t, out, "State:")
	assert.Contains(t, out, "redux-demo")

	path := writeFile(t, "file.js", "console.log('uploaded')")
	out, err = execute(t, "", "remote", "run", "--addr", ts.URL, path)
	require.NoError(t, err)
	assert.Contains(t, out, "uploaded")

	_, err = execute(t, "throw 1", "remote", "run", "--addr", ts.URL, "-")
	assert.ErrorIs(t, err, errRunFailed)

	out, err = execute(t, "", "remote", "snippets", "--addr", ts.URL, "--profile", "react")
	require.NoError(t, err)
	assert.Contains(t, out, "react-todo-list")

	_, err = execute(t, "", "remote", "run", "--addr", ts.URL, "--profile", "vue", "-")
	assert.ErrorContains(t, err, "400")
}
