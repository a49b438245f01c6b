package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llm-market-analyst/internal/analysis"
	"llm-market-analyst/internal/broker/smartapi"
	"llm-market-analyst/internal/reportlog"
	"llm-market-analyst/internal/store"
	"llm-market-analyst/internal/types"
)

type fakeMarketData struct {
	series      types.CandleSeries
	candlesErr  error
	chain       []types.OptionQuote
	chainErr    error
	lastParams  types.FetchParams
	chainCalled bool
}

func (f *fakeMarketData) FetchCandles(ctx context.Context, p types.FetchParams) (types.CandleSeries, error) {
	f.lastParams = p
	return f.series, f.candlesErr
}

func (f *fakeMarketData) FetchOptionChain(ctx context.Context, name string, expiry time.Time) ([]types.OptionQuote, error) {
	f.chainCalled = true
	return f.chain, f.chainErr
}

type fakeCompleter struct {
	response   string
	err        error
	lastPrompt types.AnalysisPrompt
}

func (f *fakeCompleter) Complete(ctx context.Context, p types.AnalysisPrompt) (string, error) {
	f.lastPrompt = p
	return f.response, f.err
}

func testConfig() *store.Config {
	var cfg store.Config
	cfg.Mode = "DRY_RUN"
	cfg.Market.Exchange = "NSE"
	cfg.Market.Symbol = "RELIANCE"
	cfg.Market.SymbolToken = "2885"
	cfg.Market.Interval = types.IntervalOneDay
	cfg.Market.Days = 30
	cfg.Analysis.StrikeWindowPct = 5
	return &cfg
}

func testSeries() types.CandleSeries {
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	return types.CandleSeries{
		{Date: base, Open: 1300, High: 1315, Low: 1295, Close: 1310, Volume: 9000000},
		{Date: base.AddDate(0, 0, 1), Open: 1310, High: 1322, Low: 1305, Close: 1318, Volume: 8700000},
	}
}

const goodResponse = `Trend: BULLISH
Confidence: HIGH
Support: 1295.00
Resistance: 1330.00
Avg Volume: 8850000
Volume Trend: STABLE
Summary: Constructive price action with firm demand near support.`

func TestAnalyzeProducesReport(t *testing.T) {
	reportlog.SetDir(t.TempDir())
	md := &fakeMarketData{series: testSeries()}
	llm := &fakeCompleter{response: goodResponse}
	eng := New(testConfig(), md, llm)
	eng.now = func() time.Time { return time.Date(2025, 8, 5, 16, 0, 0, 0, time.UTC) }

	rep, err := eng.Analyze(context.Background(), types.AnalysisRequest{})
	require.NoError(t, err)

	assert.Equal(t, "RELIANCE", rep.Symbol)
	assert.Equal(t, types.TrendBullish, rep.Trend)
	assert.Equal(t, types.ConfidenceHigh, rep.Confidence)
	assert.Equal(t, "1295", rep.Support.String())
	assert.Equal(t, int64(8850000), rep.AvgVolume)
	assert.Equal(t, eng.now().Unix(), rep.GeneratedAt)

	// Config defaults fill the empty request.
	assert.Equal(t, "2885", md.lastParams.SymbolToken)
	assert.Equal(t, types.IntervalOneDay, md.lastParams.Interval)
	assert.Equal(t, 30, int(md.lastParams.To.Sub(md.lastParams.From).Hours()/24))
	assert.False(t, md.chainCalled)
	assert.True(t, strings.Contains(llm.lastPrompt.Text, "2025-08-01"))
}

func TestAnalyzeIncludesNearTheMoneyOptions(t *testing.T) {
	reportlog.SetDir(t.TempDir())
	md := &fakeMarketData{
		series: testSeries(),
		chain: []types.OptionQuote{
			{Strike: 1200}, {Strike: 1320}, {Strike: 1500},
		},
	}
	llm := &fakeCompleter{response: goodResponse}
	eng := New(testConfig(), md, llm)

	_, err := eng.Analyze(context.Background(), types.AnalysisRequest{IncludeOptions: true})
	require.NoError(t, err)
	require.True(t, md.chainCalled)

	// Latest close is 1318; only the 1320 strike sits inside the 5% band.
	assert.Contains(t, llm.lastPrompt.Text, "1320.00")
	assert.NotContains(t, llm.lastPrompt.Text, "1500.00")
}

func TestAnalyzeOptionChainFailureIsFatal(t *testing.T) {
	md := &fakeMarketData{
		series:   testSeries(),
		chainErr: &smartapi.NoDataError{SymbolToken: "RELIANCE", Message: "no chain"},
	}
	eng := New(testConfig(), md, &fakeCompleter{response: goodResponse})

	_, err := eng.Analyze(context.Background(), types.AnalysisRequest{IncludeOptions: true})
	var noData *smartapi.NoDataError
	require.True(t, errors.As(err, &noData))
	assert.Contains(t, err.Error(), "fetch option chain")
}

func TestAnalyzeFetchFailurePropagates(t *testing.T) {
	md := &fakeMarketData{candlesErr: &smartapi.NoDataError{SymbolToken: "2885", Exchange: "NSE"}}
	eng := New(testConfig(), md, &fakeCompleter{response: goodResponse})

	_, err := eng.Analyze(context.Background(), types.AnalysisRequest{})
	var noData *smartapi.NoDataError
	require.True(t, errors.As(err, &noData))
	assert.Contains(t, err.Error(), "fetch candles")
}

func TestAnalyzeGarbageResponseIsParseError(t *testing.T) {
	md := &fakeMarketData{series: testSeries()}
	eng := New(testConfig(), md, &fakeCompleter{response: "I cannot analyze this stock right now."})

	_, err := eng.Analyze(context.Background(), types.AnalysisRequest{})
	var parseErr *analysis.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "Trend", parseErr.Field)
}

func TestAnalyzeCompleterFailurePropagates(t *testing.T) {
	md := &fakeMarketData{series: testSeries()}
	eng := New(testConfig(), md, &fakeCompleter{err: errors.New("service unavailable")})

	_, err := eng.Analyze(context.Background(), types.AnalysisRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model completion")
}
