package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buyloop/internal/runner"
	"buyloop/internal/stats"
)

func TestRecorderAndWrite(t *testing.T) {
	rec := NewRecorder()
	at := time.Date(2025, 2, 2, 8, 0, 0, 0, time.UTC)

	rec.AttemptFinished(1, runner.Outcome{Kind: runner.OutcomeTransportError, At: at, Err: errors.New("timeout")})
	rec.AttemptFinished(2, runner.Outcome{Kind: runner.OutcomeMatched, Matched: true, At: at.Add(time.Second),
		StatusCode: 200, Raw: "Qm91Z2h0", Latency: 42 * time.Millisecond})
	rec.Finished(runner.Result{Status: runner.StatusSuccess, Attempts: 2, MaxAttempts: 10,
		Summary: stats.Summary{Requests: 2, Success: 1, Fail: 1, TransportErrors: 1}})

	prefix := filepath.Join(t.TempDir(), "run")
	require.NoError(t, Write(rec, prefix))

	f, err := os.Open(prefix + ".csv")
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "attempt", rows[0][0])
	assert.Equal(t, []string{"1", "1738483200000", "0", "transport_error", "false", "0", "0", "timeout"}, rows[1])
	assert.Equal(t, "matched", rows[2][3])
	assert.Equal(t, "42", rows[2][2])
	assert.Equal(t, "8", rows[2][6])

	data, err := os.ReadFile(prefix + "_summary.json")
	require.NoError(t, err)
	var sum RunSummary
	require.NoError(t, json.Unmarshal(data, &sum))
	assert.Equal(t, "success", sum.Status)
	assert.Equal(t, 0, sum.ExitCode)
	assert.Equal(t, uint64(1), sum.Stats.TransportErrors)
}

func TestWriteRequiresResult(t *testing.T) {
	err := Write(NewRecorder(), filepath.Join(t.TempDir(), "x"))
	assert.Error(t, err)
}
