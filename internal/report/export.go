package report

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"buyloop/internal/runner"
	"buyloop/internal/stats"
)

// ExportCSV writes one row per attempt.
func ExportCSV(records []AttemptRecord, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := []string{"attempt", "timeStamp", "elapsed", "outcome", "matched", "responseCode", "bytes", "failureMessage"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		row := []string{
			strconv.Itoa(rec.Attempt),
			strconv.FormatInt(rec.TimeStamp.UnixMilli(), 10),
			strconv.FormatInt(rec.Latency.Milliseconds(), 10),
			rec.Outcome,
			strconv.FormatBool(rec.Matched),
			strconv.Itoa(rec.StatusCode),
			strconv.Itoa(rec.Bytes),
			rec.Error,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// RunSummary is the JSON document written next to the CSV.
type RunSummary struct {
	Status      string        `json:"status"`
	ExitCode    int           `json:"exit_code"`
	Attempts    int           `json:"attempts"`
	MaxAttempts int           `json:"max_attempts"`
	Stats       stats.Summary `json:"stats"`
}

func NewRunSummary(res runner.Result) RunSummary {
	return RunSummary{
		Status:      res.Status.String(),
		ExitCode:    res.ExitCode(),
		Attempts:    res.Attempts,
		MaxAttempts: res.MaxAttempts,
		Stats:       res.Summary,
	}
}

// ExportSummary writes the run summary as indented JSON.
func ExportSummary(res runner.Result, filename string) error {
	data, err := json.MarshalIndent(NewRunSummary(res), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0644)
}

// Write exports prefix.csv and prefix_summary.json from a finished
// recorder.
func Write(rec *Recorder, prefix string) error {
	if rec.Result == nil {
		return errors.New("report: run has not finished")
	}
	if err := ExportCSV(rec.Records, prefix+".csv"); err != nil {
		return fmt.Errorf("report: write csv: %w", err)
	}
	if err := ExportSummary(*rec.Result, prefix+"_summary.json"); err != nil {
		return fmt.Errorf("report: write summary: %w", err)
	}
	return nil
}
