package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// appendRunLog appends one run to the human-readable run log: a header with
// the start timestamp, then one line per step with an explicit failure marker.
func appendRunLog(path string, report *RunReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "=== %s run started %s (%.1fs) ===\n",
		report.Kind, report.StartedAt.UTC().Format(time.RFC3339), report.Seconds); err != nil {
		return err
	}

	for _, s := range report.Steps {
		var line string
		if s.Failed() {
			line = fmt.Sprintf("FAIL site=%s step=%s error=%v\n", s.Site, s.Step, s.Err)
		} else if s.Detail != "" {
			line = fmt.Sprintf("ok   site=%s step=%s %s\n", s.Site, s.Step, s.Detail)
		} else {
			line = fmt.Sprintf("ok   site=%s step=%s\n", s.Site, s.Step)
		}
		if _, err := f.WriteString(line); err != nil {
			return err
		}
	}

	return nil
}
