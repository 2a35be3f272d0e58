package cmd

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buyloop/internal/runner"
	"buyloop/internal/storage"
)

type stubSender struct {
	bodies []string
	calls  int
}

func (s *stubSender) Send(ctx context.Context, payload string) (runner.Response, error) {
	i := min(s.calls, len(s.bodies)-1)
	s.calls++
	return runner.Response{StatusCode: 200, Body: s.bodies[i], Latency: time.Millisecond}, nil
}

func testApp(t *testing.T, sender *stubSender) (*app, *bytes.Buffer, *bytes.Buffer, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	dir := t.TempDir()
	return &app{
		out:        &out,
		errOut:     &errOut,
		newSender:  func(string) runner.Sender { return sender },
		historyDir: func() (string, error) { return dir, nil },
		location:   time.UTC,
		isTerminal: func() bool { return false },
	}, &out, &errOut, dir
}

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func TestExecuteSuccessExitsZero(t *testing.T) {
	sender := &stubSender{bodies: []string{b64("Sold out"), b64("Bought")}}
	a, out, _, dir := testApp(t, sender)

	code := execute(a, []string{"-d", "AAAA", "-m", "5", "-l", "0"})

	assert.Equal(t, 0, code)
	assert.Equal(t, 2, sender.calls)
	assert.Contains(t, out.String(), "Bought on attempt #2")

	store, err := storage.NewStore(dir)
	require.NoError(t, err)
	require.Len(t, store.List(), 1)
	assert.Equal(t, "success", store.List()[0].Summary.Status)
}

func TestExecuteExhaustedExitsOne(t *testing.T) {
	sender := &stubSender{bodies: []string{b64("Sold out")}}
	a, out, errOut, _ := testApp(t, sender)

	code := execute(a, []string{"-d", "AAAA", "-m", "3", "-l", "0", "--no-history"})

	assert.Equal(t, 1, code)
	assert.Equal(t, 3, sender.calls)
	assert.Contains(t, out.String(), "Maximum attempts (3) reached without success")
	assert.NotContains(t, errOut.String(), "Fatal error")
}

func TestExecuteDecodeAbortExitsOne(t *testing.T) {
	sender := &stubSender{bodies: []string{"<html>", b64("Bought")}}
	a, _, _, _ := testApp(t, sender)

	code := execute(a, []string{"-d", "AAAA", "-s", "-l", "0", "--no-history"})

	assert.Equal(t, 1, code)
	assert.Equal(t, 1, sender.calls)
}

func TestExecuteConfigErrorSendsNothing(t *testing.T) {
	sender := &stubSender{bodies: []string{b64("Bought")}}
	a, _, errOut, _ := testApp(t, sender)

	code := execute(a, []string{"-d", "  "})

	assert.Equal(t, 1, code)
	assert.Zero(t, sender.calls)
	assert.Contains(t, errOut.String(), "data argument cannot be empty")
}

func TestExecuteWritesReports(t *testing.T) {
	sender := &stubSender{bodies: []string{b64("Bought")}}
	a, _, _, _ := testApp(t, sender)
	prefix := filepath.Join(t.TempDir(), "run")

	code := execute(a, []string{"-d", "AAAA", "-o", prefix, "--no-history"})

	assert.Equal(t, 0, code)
	assert.FileExists(t, prefix+".csv")
	assert.FileExists(t, prefix+"_summary.json")
}

func TestExecuteConfigFile(t *testing.T) {
	sender := &stubSender{bodies: []string{b64("nope")}}
	a, _, _, _ := testApp(t, sender)
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data":"AAAA","max-attempts":2,"delay":0}`), 0644))

	code := execute(a, []string{"-c", path, "--no-history"})

	assert.Equal(t, 1, code)
	assert.Equal(t, 2, sender.calls)
}

func TestHistoryCommand(t *testing.T) {
	sender := &stubSender{bodies: []string{b64("Bought")}}
	a, out, _, _ := testApp(t, sender)
	require.Equal(t, 0, execute(a, []string{"-d", "AAAA"}))

	out.Reset()
	require.Equal(t, 0, execute(a, []string{"history"}))
	assert.Contains(t, out.String(), "STATUS")
	assert.Contains(t, out.String(), "success")
	assert.Contains(t, out.String(), "1/10000")
}

func TestHistoryShowsOneRun(t *testing.T) {
	sender := &stubSender{bodies: []string{b64("Sold out"), b64("Bought")}}
	a, out, _, dir := testApp(t, sender)
	require.Equal(t, 0, execute(a, []string{"-d", "AAAA", "-l", "0"}))

	store, err := storage.NewStore(dir)
	require.NoError(t, err)
	require.Len(t, store.List(), 1)
	id := store.List()[0].ID

	out.Reset()
	require.Equal(t, 0, execute(a, []string{"history", id}))
	assert.Contains(t, out.String(), id)
	assert.Contains(t, out.String(), "2/10000")
	assert.Contains(t, out.String(), "req/s")
	assert.Contains(t, out.String(), "avg ")
}

func TestHistoryUnknownIDFails(t *testing.T) {
	a, _, errOut, _ := testApp(t, &stubSender{bodies: []string{""}})

	assert.Equal(t, 1, execute(a, []string{"history", "does-not-exist"}))
	assert.Contains(t, errOut.String(), `no recorded run with id "does-not-exist"`)
}

func TestTUIWithoutTerminalSendsNothing(t *testing.T) {
	sender := &stubSender{bodies: []string{b64("Bought")}}
	a, _, errOut, dir := testApp(t, sender)

	code := execute(a, []string{"-d", "AAAA", "--tui"})

	assert.Equal(t, 1, code)
	assert.Zero(t, sender.calls)
	assert.Contains(t, errOut.String(), "interactive terminal")

	store, err := storage.NewStore(dir)
	require.NoError(t, err)
	assert.Empty(t, store.List())
}

func TestTUIRunPrintsSummaryAndSavesHistory(t *testing.T) {
	sender := &stubSender{bodies: []string{b64("Sold out"), b64("Bought")}}
	a, out, _, dir := testApp(t, sender)
	a.isTerminal = func() bool { return true }
	a.tuiOptions = []tea.ProgramOption{tea.WithInput(nil)}

	code := execute(a, []string{"-d", "AAAA", "-m", "5", "-l", "0", "--tui"})

	assert.Equal(t, 0, code)
	assert.Equal(t, 2, sender.calls)
	assert.Contains(t, out.String(), "RUN STATISTICS")
	assert.Contains(t, out.String(), "req/s")
	assert.Contains(t, out.String(), "Bought on attempt #2")

	store, err := storage.NewStore(dir)
	require.NoError(t, err)
	require.Len(t, store.List(), 1)
	assert.Equal(t, "success", store.List()[0].Summary.Status)
}

func TestStartWhenReadySkipsAbandonedLoop(t *testing.T) {
	called := false
	loop := startWhenReady(make(chan struct{}), func() runner.Result {
		called = true
		return runner.Result{Status: runner.StatusSuccess}
	})

	_, started := loop.Wait()
	assert.False(t, started)
	assert.False(t, called)
}

func TestStartWhenReadyRunsOnceReady(t *testing.T) {
	ready := make(chan struct{})
	loop := startWhenReady(ready, func() runner.Result {
		return runner.Result{Status: runner.StatusExhausted, Attempts: 3}
	})
	close(ready)

	// Wait may race the ready signal, so give the loop a moment to pick it up.
	time.Sleep(10 * time.Millisecond)
	res, started := loop.Wait()
	require.True(t, started)
	assert.Equal(t, 3, res.Attempts)
}

func TestHelpShowsBanner(t *testing.T) {
	a, out, _, _ := testApp(t, &stubSender{bodies: []string{""}})
	assert.Equal(t, 0, execute(a, []string{"--help"}))
	assert.Contains(t, out.String(), "--max-attempts")
	assert.Contains(t, out.String(), "-n, --no-stop")
}
