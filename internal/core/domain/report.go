package domain

// ReportEntry is the per-product line of the inventory value report.
// It is derived on every read and never persisted.
type ReportEntry struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Price          int64  `json:"price"`
	Count          int64  `json:"count"`
	InventoryValue int64  `json:"inventory_value"`
}

func NewReportEntry(p Product) ReportEntry {
	return ReportEntry{
		ID:             p.ID,
		Name:           p.Name,
		Price:          p.Price,
		Count:          p.Count,
		InventoryValue: p.InventoryValue(),
	}
}

// InventoryValue is price times count. Both are bounded by MaxInt32 so the
// product cannot overflow int64.
func (p Product) InventoryValue() int64 {
	return p.Price * p.Count
}
