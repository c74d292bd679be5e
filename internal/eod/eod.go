// Package eod aggregates the day's trade log into a per-pair CSV summary,
// written next to the daily log files.
package eod

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"llm-futures-trader/internal/tradelog"
)

type aggRow struct {
	Pair         string
	Opens        int
	Closes       int
	Failed       int
	MarginOpened float64
}

func logDir() string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

func dailyTradeFile(t time.Time) string {
	return filepath.Join(logDir(), t.UTC().Format("2006-01-02")+".txt")
}

func summaryCSVPath(t time.Time) string {
	return filepath.Join(logDir(), "eod", t.UTC().Format("2006-01-02")+".csv")
}

// SummarizeToday summarizes the current UTC day.
func SummarizeToday() (string, error) {
	return SummarizeDay(time.Now())
}

// SummarizeDay aggregates the trade log for the given day into a CSV and
// returns its path. No trades for the day yields ("", nil).
func SummarizeDay(t time.Time) (string, error) {
	inPath := dailyTradeFile(t)
	if _, err := os.Stat(inPath); err != nil {
		return "", nil
	}
	f, err := os.Open(inPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	aggs := map[string]*aggRow{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e tradelog.Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		row := aggs[e.Pair]
		if row == nil {
			row = &aggRow{Pair: e.Pair}
			aggs[e.Pair] = row
		}
		switch e.Action {
		case "open_position":
			row.Opens++
			if e.Succeeded {
				row.MarginOpened += e.Amount
			}
		case "close_position":
			row.Closes++
		}
		if !e.Succeeded {
			row.Failed++
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if len(aggs) == 0 {
		return "", nil
	}

	pairs := make([]string, 0, len(aggs))
	for k := range aggs {
		pairs = append(pairs, k)
	}
	sort.Strings(pairs)

	outPath := summaryCSVPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	defer w.Flush()
	if err := w.Write([]string{"pair", "opens", "closes", "failed", "margin_opened"}); err != nil {
		return "", err
	}
	var totalOpens, totalCloses, totalFailed int
	var totalMargin float64
	for _, k := range pairs {
		r := aggs[k]
		rec := []string{
			r.Pair,
			strconv.Itoa(r.Opens),
			strconv.Itoa(r.Closes),
			strconv.Itoa(r.Failed),
			fmt.Sprintf("%.2f", r.MarginOpened),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
		totalOpens += r.Opens
		totalCloses += r.Closes
		totalFailed += r.Failed
		totalMargin += r.MarginOpened
	}
	total := []string{"TOTAL", strconv.Itoa(totalOpens), strconv.Itoa(totalCloses), strconv.Itoa(totalFailed), fmt.Sprintf("%.2f", totalMargin)}
	if err := w.Write(total); err != nil {
		return "", err
	}
	return outPath, nil
}
