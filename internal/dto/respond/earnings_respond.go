package respond

// DurationReportRespond 时长上报结果
type DurationReportRespond struct {
	Success  bool   `json:"success"`
	Earnings *int64 `json:"earnings,omitempty"`
}

// BalanceRespond 账户余额
type BalanceRespond struct {
	Balance  int64 `json:"balance"`
	Earnings int64 `json:"earnings"`
}
