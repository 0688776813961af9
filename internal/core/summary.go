package core

// MonthlySummary totals the instances falling in one calendar month.
// ProgressPercentage is 0 when nothing is expected, never NaN.
type MonthlySummary struct {
	Year               int     `json:"year"`
	Month              int     `json:"month"` // 1-12
	TotalExpected      Money   `json:"totalExpected"`
	TotalPaid          Money   `json:"totalPaid"`
	TotalUnpaid        Money   `json:"totalUnpaid"`
	ProgressPercentage float64 `json:"progressPercentage"`
}
