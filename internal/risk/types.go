package risk

// Verdict 为一次入场风控判定的结果。
type Verdict struct {
	Allowed       bool
	Reason        string
	DailyNotional float64
	Proposed      float64
}
