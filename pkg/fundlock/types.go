package fundlock

// Wire types shared by the fundlock server and this SDK. All dates are
// formatted 2006-01-02.

// Params configures a backtest.
type Params struct {
	MotherTicker    string   `json:"motherTicker"`
	ChildTickers    []string `json:"childTickers"`
	BenchmarkTicker string   `json:"benchmarkTicker,omitempty"`
	Capital         float64  `json:"capital"`
	EntryFeeRate    float64  `json:"entryFeeRate,omitempty"`
	TransferAmount  float64  `json:"transferAmount"`
	TransferDays    []int    `json:"transferDays"`
	TargetROI       float64  `json:"targetROI"`
}

// PricePoint is one daily close in a request's inline price series.
type PricePoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// BacktestRequest runs the engine over inline price series.
type BacktestRequest struct {
	// Mode selects the engine: "single" (default) or "continuous".
	Mode   string                  `json:"mode,omitempty"`
	Params Params                  `json:"params"`
	Prices map[string][]PricePoint `json:"prices"`
	// Save persists the run and returns its ID.
	Save bool `json:"save,omitempty"`
}

// Record is one daily row of the simulation log.
type Record struct {
	Date        string             `json:"date"`
	Total       float64            `json:"total"`
	Mother      float64            `json:"mother"`
	ChildTotal  float64            `json:"childTotal"`
	ChildValues map[string]float64 `json:"childValues,omitempty"`
	Benchmark   float64            `json:"benchmark,omitempty"`
	ROI         float64            `json:"roi"`
	Action      string             `json:"action"`
	Round       int                `json:"round,omitempty"`
}

// Summary describes one completed round in continuous mode.
type Summary struct {
	Round  int     `json:"round"`
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Days   int     `json:"days"`
	ROI    float64 `json:"roi"`
	Profit float64 `json:"profit"`
}

// Stats aggregates a continuous-cycle run.
type Stats struct {
	CompletedRounds int     `json:"completedRounds"`
	Running         bool    `json:"running"`
	CurrentROI      float64 `json:"currentROI,omitempty"`
	TotalProfit     float64 `json:"totalProfit"`
	MeanDays        float64 `json:"meanDays,omitempty"`
}

// BacktestResponse is the result of a backtest request.
type BacktestResponse struct {
	Mode      string    `json:"mode"`
	Triggered bool      `json:"triggered,omitempty"`
	Children  []string  `json:"children"`
	Records   []Record  `json:"records"`
	Summaries []Summary `json:"summaries,omitempty"`
	Stats     *Stats    `json:"stats,omitempty"`
	RunID     int64     `json:"runId,omitempty"`
}

// RunMeta describes a persisted run without its records.
type RunMeta struct {
	ID        int64  `json:"id"`
	CreatedAt string `json:"createdAt"`
	Mode      string `json:"mode"`
	Params    Params `json:"params"`
	Triggered bool   `json:"triggered,omitempty"`
	Stats     *Stats `json:"stats,omitempty"`
}

// Run is a persisted run with its full daily log.
type Run struct {
	RunMeta
	Records   []Record  `json:"records"`
	Summaries []Summary `json:"summaries,omitempty"`
}

// RunsResponse lists persisted runs.
type RunsResponse struct {
	Runs []RunMeta `json:"runs"`
}
