package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"llm-futures-trader/internal/types"
)

var mu sync.Mutex

// Entry is one executed (or attempted) action, appended to the daily file.
type Entry struct {
	Time      string  `json:"time"`
	Pair      string  `json:"pair"`
	Action    string  `json:"action"`
	Side      string  `json:"side,omitempty"`
	Amount    float64 `json:"amount,omitempty"`
	Leverage  float64 `json:"leverage,omitempty"`
	Response  string  `json:"response"`
	Succeeded bool    `json:"succeeded"`
	Rationale string  `json:"rationale,omitempty"`
}

// DecisionEntry records one full model response per cycle.
type DecisionEntry struct {
	Time      string `json:"time"`
	Reasoning string `json:"reasoning"`
	Summary   string `json:"summary"`
	Actions   int    `json:"actions"`
}

func logDir() string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func dailyFilepath(t time.Time) string {
	return filepath.Join(logDir(), t.UTC().Format("2006-01-02")+".txt")
}

func decisionsFilepath(t time.Time) string {
	return filepath.Join(logDir(), "decisions", t.UTC().Format("2006-01-02")+".txt")
}

func appendLine(p string, v any) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(v)
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// Append records one action outcome in the daily file.
func Append(e Entry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	e.Time = now.Format("2006-01-02 15:04:05")
	return appendLine(dailyFilepath(now), e)
}

// FromOutcome builds an Entry from an executed decision.
func FromOutcome(o types.ActionOutcome) Entry {
	return Entry{
		Pair:      o.Decision.Pair,
		Action:    string(o.Decision.Type),
		Side:      o.Decision.Side,
		Amount:    o.Decision.Amount,
		Leverage:  o.Decision.Leverage,
		Response:  o.Response,
		Succeeded: o.Succeeded,
		Rationale: o.Decision.Rationale,
	}
}

// AppendDecision records the full model response for one cycle.
func AppendDecision(e DecisionEntry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	e.Time = now.Format("2006-01-02 15:04:05")
	return appendLine(decisionsFilepath(now), e)
}

// CompressOlder gzips daily files older than retentionDays and removes
// the originals. A non-positive retention disables compression.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(logDir(), func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		if _, e2 := os.Stat(gz); e2 == nil {
			_ = os.Remove(p)
			return nil
		}
		in, e3 := os.Open(p)
		if e3 != nil {
			return nil
		}
		defer in.Close()
		out, e4 := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if e4 != nil {
			return nil
		}
		gw := gzip.NewWriter(out)
		if _, e5 := io.Copy(gw, in); e5 == nil {
			_ = gw.Close()
			_ = out.Close()
			_ = os.Remove(p)
		} else {
			_ = gw.Close()
			_ = out.Close()
		}
		return nil
	})
}
