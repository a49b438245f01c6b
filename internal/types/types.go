package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Candle struct {
	Date                   time.Time
	Open, High, Low, Close float64
	Volume                 int64
}

// CandleSeries is ascending by date with unique dates. The prompt
// builder enforces the ordering before any of it reaches the model.
type CandleSeries []Candle

func (cs CandleSeries) Latest() Candle {
	if len(cs) == 0 {
		return Candle{}
	}
	return cs[len(cs)-1]
}

// Session holds the tokens returned by a successful login. Sessions are
// replaced on re-login, never mutated in place.
type Session struct {
	SessionToken string
	RefreshToken string
	FeedToken    string
	ClientCode   string
	IssuedAt     time.Time
	ExpiresAt    time.Time
}

// Candle intervals SmartAPI accepts for historical data.
const (
	IntervalOneMinute     = "ONE_MINUTE"
	IntervalFiveMinute    = "FIVE_MINUTE"
	IntervalFifteenMinute = "FIFTEEN_MINUTE"
	IntervalThirtyMinute  = "THIRTY_MINUTE"
	IntervalOneHour       = "ONE_HOUR"
	IntervalOneDay        = "ONE_DAY"
)

var intervals = map[string]bool{
	IntervalOneMinute:     true,
	IntervalFiveMinute:    true,
	IntervalFifteenMinute: true,
	IntervalThirtyMinute:  true,
	IntervalOneHour:       true,
	IntervalOneDay:        true,
}

func ValidInterval(s string) bool { return intervals[s] }

type FetchParams struct {
	SymbolToken string
	Exchange    string
	Interval    string
	From        time.Time
	To          time.Time
}

// OptionQuote is one strike row of an options chain snapshot.
type OptionQuote struct {
	TradingSymbol string  `json:"trading_symbol"`
	OptionType    string  `json:"option_type"` // CE or PE
	Strike        float64 `json:"strike"`
	OpenInterest  int64   `json:"open_interest"`
	IV            float64 `json:"iv"`
	Delta         float64 `json:"delta"`
	Gamma         float64 `json:"gamma"`
	Theta         float64 `json:"theta"`
	Vega          float64 `json:"vega"`
}

// AnalysisPrompt is the immutable payload sent to the model. Built once
// per invocation; retries resend it verbatim.
type AnalysisPrompt struct {
	Symbol string
	Text   string
}

type Trend string

const (
	TrendBullish Trend = "BULLISH"
	TrendBearish Trend = "BEARISH"
	TrendNeutral Trend = "NEUTRAL"
)

type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

type VolumeTrend string

const (
	VolumeIncreasing VolumeTrend = "INCREASING"
	VolumeDecreasing VolumeTrend = "DECREASING"
	VolumeStable     VolumeTrend = "STABLE"
)

// AnalysisReport is the validated result of one analysis. Constructed
// only by the response parser; either fully populated or not at all.
type AnalysisReport struct {
	Symbol      string          `json:"symbol"`
	Trend       Trend           `json:"trend"`
	Confidence  Confidence      `json:"confidence"`
	Support     decimal.Decimal `json:"support"`
	Resistance  decimal.Decimal `json:"resistance"`
	AvgVolume   int64           `json:"avg_volume"`
	VolumeTrend VolumeTrend     `json:"volume_trend"`
	Summary     string          `json:"summary"`
	GeneratedAt int64           `json:"generated_at"`
}

type AnalysisRequest struct {
	Symbol         string
	SymbolToken    string
	Exchange       string
	Interval       string
	Days           int
	IncludeOptions bool
}
