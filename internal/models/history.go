package models

// HistoryPoint is one daily value sample for a collection. Date is the UTC
// calendar day in canonical "YYYY-MM-DD" form, which sorts correctly as a
// plain string.
type HistoryPoint struct {
	Date       string  `json:"date"`
	TotalValue float64 `json:"totalValue"`
}

// HistoryDocument is the sidecar file layout: an ordered, date-unique list of
// points for one collection.
type HistoryDocument struct {
	Points []HistoryPoint `json:"points"`
}
