// Package reportlog appends finished analysis reports to daily JSONL
// files and compresses files past the retention window.
package reportlog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"llm-market-analyst/internal/types"
)

var (
	mu      sync.Mutex
	baseDir = "reports"
)

type Entry struct {
	Time     string                `json:"time"`
	Report   *types.AnalysisReport `json:"report"`
	Interval string                `json:"interval,omitempty"`
	Exchange string                `json:"exchange,omitempty"`
	Extra    map[string]any        `json:"extra,omitempty"`
}

// SetDir changes the default log directory; the ANALYST_LOG_DIR
// environment variable still wins when set.
func SetDir(dir string) {
	mu.Lock()
	defer mu.Unlock()
	if dir != "" {
		baseDir = dir
	}
}

func logDir() string {
	if v := os.Getenv("ANALYST_LOG_DIR"); v != "" {
		return v
	}
	return baseDir
}

func dailyFilepath(t time.Time) string {
	d := t.In(time.FixedZone("IST", 19800)).Format("2006-01-02")
	return filepath.Join(logDir(), d+".txt")
}

func Append(e Entry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().In(time.FixedZone("IST", 19800))
	e.Time = now.Format("2006-01-02 15:04:05")
	p := dailyFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
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
			if _, e5 := io.Copy(gw, in); e5 != nil {
				gw.Close()
				out.Close()
				_ = os.Remove(gz)
				return nil
			}
			gw.Close()
			out.Close()
			_ = os.Remove(p)
		}
		return nil
	})
}
