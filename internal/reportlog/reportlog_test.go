package reportlog

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-market-analyst/internal/types"
)

func sampleReport() *types.AnalysisReport {
	return &types.AnalysisReport{
		Symbol:      "RELIANCE",
		Trend:       types.TrendBullish,
		Confidence:  types.ConfidenceHigh,
		Support:     decimal.NewFromFloat(1295),
		Resistance:  decimal.NewFromFloat(1330),
		AvgVolume:   8850000,
		VolumeTrend: types.VolumeStable,
		Summary:     "Constructive price action.",
		GeneratedAt: time.Now().Unix(),
	}
}

func TestAppendWritesDailyJSONL(t *testing.T) {
	dir := t.TempDir()
	SetDir(dir)

	require.NoError(t, Append(Entry{Report: sampleReport(), Interval: "ONE_DAY", Exchange: "NSE"}))
	require.NoError(t, Append(Entry{Report: sampleReport(), Interval: "ONE_DAY", Exchange: "NSE"}))

	day := time.Now().In(time.FixedZone("IST", 19800)).Format("2006-01-02")
	b, err := os.ReadFile(filepath.Join(dir, day+".txt"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		var e Entry
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		assert.Equal(t, "RELIANCE", e.Report.Symbol)
		assert.NotEmpty(t, e.Time)
	}
}

func TestCompressOlderGzipsPastRetention(t *testing.T) {
	dir := t.TempDir()
	SetDir(dir)

	old := filepath.Join(dir, "2025-01-02.txt")
	require.NoError(t, os.WriteFile(old, []byte("{\"time\":\"2025-01-02 10:00:00\"}\n"), 0o644))
	past := time.Now().AddDate(0, 0, -10)
	require.NoError(t, os.Chtimes(old, past, past))

	fresh := filepath.Join(dir, time.Now().Format("2006-01-02")+".txt")
	require.NoError(t, os.WriteFile(fresh, []byte("{}\n"), 0o644))

	require.NoError(t, CompressOlder(7))

	_, err := os.Stat(old)
	assert.True(t, os.IsNotExist(err), "old file should be replaced by gzip")

	gz, err := os.Open(old + ".gz")
	require.NoError(t, err)
	defer gz.Close()
	gr, err := gzip.NewReader(gz)
	require.NoError(t, err)
	content, err := io.ReadAll(gr)
	require.NoError(t, err)
	assert.Contains(t, string(content), "2025-01-02 10:00:00")

	_, err = os.Stat(fresh)
	assert.NoError(t, err, "fresh file must stay uncompressed")
}
