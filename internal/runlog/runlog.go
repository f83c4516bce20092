package runlog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	mu         sync.Mutex
	defaultDir string
)

// SetDir points the run log at the configured directory. Meant to be
// called once at startup; the STOCKSENSE_LOG_DIR environment variable
// still takes precedence.
func SetDir(dir string) {
	defaultDir = dir
}

type RecommendationEntry struct {
	Time, Symbol, Action, Detail string
	Confidence                   float64
	ForecastClose                float64           `json:",omitempty"`
	Sentiment                    float64           `json:",omitempty"`
	Signals                      map[string]string `json:",omitempty"`
	Extra                        map[string]any    `json:"extra,omitempty"`
}

type BacktestEntry struct {
	Time, Symbol string
	TotalReturn  float64
	BuyHold      float64
	Sharpe       float64
	MaxDrawdown  float64
	Trades       int
	Accuracy     float64
	Extra        map[string]any `json:"extra,omitempty"`
}

func logDir() string {
	if v := os.Getenv("STOCKSENSE_LOG_DIR"); v != "" {
		return v
	}
	if defaultDir != "" {
		return defaultDir
	}
	return "runs"
}

func dailyFilepath(t time.Time) string {
	return filepath.Join(logDir(), t.UTC().Format("2006-01-02")+".txt")
}

func backtestFilepath(t time.Time) string {
	return filepath.Join(logDir(), "backtests", t.UTC().Format("2006-01-02")+".txt")
}

func Append(e RecommendationEntry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	e.Time = now.Format("2006-01-02 15:04:05")
	return appendLine(dailyFilepath(now), e)
}

func AppendBacktest(e BacktestEntry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	e.Time = now.Format("2006-01-02 15:04:05")
	return appendLine(backtestFilepath(now), e)
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

func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	root := logDir()
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(p) != ".txt" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil {
			return nil
		}
		cutoff := time.Now().AddDate(0, 0, -retentionDays)
		if info.ModTime().Before(cutoff) {
			gz := p + ".gz"
			// if already gz exists, remove original .txt
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
		}
		return nil
	})
}
