package cli

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"buyloop/internal/runner"
	"buyloop/internal/tui/styles"
)

const maxBodyPreview = 500

// Console prints loop progress as plain styled lines.
type Console struct {
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// Header describes the run before the first request.
func (c *Console) Header(cfg runner.Config) {
	c.printf("%s\n", styles.Start.Render("Starting trade bot..."))
	c.printf("======================================================================\n")
	c.printf("%s%s\n", styles.Label.Render("Endpoint"), cfg.Endpoint)
	c.printf("%s%d\n", styles.Label.Render("Max attempts"), cfg.MaxAttempts)
	c.printf("%s%.2fs (±20%%)\n", styles.Label.Render("Delay"), cfg.Delay)
	c.printf("%s%v\n", styles.Label.Render("Stop on match"), !cfg.NoStop)
	c.printf("%s%v\n", styles.Label.Render("Stop on decode"), cfg.StopOnDecodeError)
	if !cfg.ReleaseTime.IsZero() {
		c.printf("%s%s\n", styles.Label.Render("Release"), cfg.ReleaseTime.Format(time.RFC3339))
		c.printf("%s%s\n", styles.Label.Render("Start at"),
			runner.StartAt(cfg.ReleaseTime, cfg.StartBefore).Format(time.RFC3339))
	}
	c.printf("======================================================================\n\n")
}

func (c *Console) Waiting(startAt time.Time, wait time.Duration) {
	c.printf("%s\n\n", styles.Warn.Render(fmt.Sprintf("Waiting %s until %s...",
		wait.Round(time.Millisecond), startAt.Format("15:04:05.000"))))
}

func (c *Console) AttemptStarted(attempt, maxAttempts int) {
	c.printf("%s\n", styles.Info.Render(fmt.Sprintf("Request #%d/%d...", attempt, maxAttempts)))
}

func (c *Console) AttemptFinished(_ int, o runner.Outcome) {
	if o.Kind == runner.OutcomeTransportError {
		c.printf("%s %v\n", styles.Error.Render("Request failed:"), o.Err)
		c.printf("%s\n\n", styles.Error.Render("Request failed, trying again..."))
		return
	}

	c.printf("%s\n", styles.Subtle.Render(fmt.Sprintf("Response (HTTP %d, %s):", o.StatusCode, o.Latency.Round(time.Millisecond))))
	c.printf("%s\n", styles.Dim.Render(Preview(o.Raw)))

	switch o.Kind {
	case runner.OutcomeDecodeError:
		c.printf("%s %v\n", styles.Warn.Render("Could not decode response:"), o.Err)
	default:
		c.printf("%s\n", styles.Subtle.Render("Decoded response:"))
		c.printf("%s\n", styles.Dim.Render(Preview(o.Decoded)))
	}
	c.printf("\n")

	if o.Matched {
		c.printf("%s\n\n", styles.Success.Render(fmt.Sprintf("Success! Found %q in response.", runner.SuccessMarker)))
		return
	}
	c.printf("%s\n\n", styles.Warn.Render(fmt.Sprintf("No %q found, trying again...", runner.SuccessMarker)))
}

func (c *Console) Sleeping(time.Duration) {}

func (c *Console) Finished(res runner.Result) {
	s := res.Summary

	c.printf("%s\n", styles.Title.Render("RUN STATISTICS"))
	c.printf("%s%s\n", styles.Label.Render("Duration"), time.Duration(s.ElapsedSeconds*float64(time.Second)).Round(time.Millisecond))
	c.printf("%s%d\n", styles.Label.Render("Requests"), s.Requests)
	c.printf("%s%s\n", styles.Label.Render("Successful"), styles.Value.Render(fmt.Sprint(s.Success)))
	c.printf("%s%d (transport %d)\n", styles.Label.Render("Failed"), s.Fail, s.TransportErrors)
	c.printf("%s%d\n", styles.Label.Render("Decode errors"), s.DecodeErrors)
	c.printf("%s%.2f req/s\n", styles.Label.Render("Average rate"), s.RequestsPerSec)
	c.printf("%savg %.1f | p50 %.1f | p90 %.1f | p99 %.1f | max %.1f\n\n", styles.Label.Render("Latency (ms)"),
		s.MeanMs, s.P50Ms, s.P90Ms, s.P99Ms, s.MaxMs)

	switch res.Status {
	case runner.StatusSuccess:
		if res.NoStop {
			c.printf("%s\n", styles.Success.Render(fmt.Sprintf("Maximum attempts (%d) reached", res.MaxAttempts)))
		} else {
			c.printf("%s\n", styles.Success.Render(fmt.Sprintf("Bought on attempt #%d", res.Attempts)))
		}
	case runner.StatusExhausted:
		c.printf("%s\n", styles.Fatal.Render(fmt.Sprintf("Maximum attempts (%d) reached without success", res.MaxAttempts)))
	case runner.StatusDecodeAborted:
		c.printf("%s\n", styles.Fatal.Render(fmt.Sprintf("Stopped on undecodable response at attempt #%d", res.Attempts)))
	case runner.StatusInterrupted:
		c.printf("%s\n", styles.Warn.Render(fmt.Sprintf("Interrupted after %d attempts", res.Attempts)))
	}
}

// Preview makes a response body safe to print: control bytes from the
// gRPC framing are dropped and long bodies are cut.
func Preview(s string) string {
	clean := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || unicode.IsPrint(r) {
			return r
		}
		return -1
	}, s)
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return "(empty)"
	}
	return Truncate(clean, maxBodyPreview)
}

// Truncate cuts s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
