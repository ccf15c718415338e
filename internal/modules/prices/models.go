package prices

// Snapshot represents one OHLCV price observation for a security.
// (security_id, snapshot_time) is a natural key: re-importing the same
// timestamp overwrites the row instead of duplicating it.
type Snapshot struct {
	ID           int64   `json:"id"`
	SecurityID   int64   `json:"security_id"`
	SnapshotTime string  `json:"snapshot_time"` // RFC 3339
	Open         float64 `json:"open"`
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	Close        float64 `json:"close"`
	Volume       int64   `json:"volume"`
	Source       string  `json:"source"`
	IntervalCode string  `json:"interval_code"`
}

// Analytics summarizes the stored close-price series of a security
type Analytics struct {
	SecurityID           int64    `json:"security_id"`
	Observations         int      `json:"observations"`
	MeanDailyReturn      float64  `json:"mean_daily_return"`
	AnnualizedVolatility float64  `json:"annualized_volatility"`
	SharpeRatio          float64  `json:"sharpe_ratio"`
	MaxDrawdown          float64  `json:"max_drawdown"`
	RSI14                *float64 `json:"rsi_14,omitempty"`
}
