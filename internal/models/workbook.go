package models

// Column labels the loader and engine look up after trimming.
const (
	ColOutletID        = "Outlet ID"
	ColOutletName      = "Outlet Name"
	ColHeadOffice      = "Head Office Name"
	ColCustomerChannel = "Customer Channel"
	ColCustomerSegment = "Customer Segment"
	ColCustomerStatus  = "Customer Status"
	ColWarehouse       = "Warehouse"
)

// Workbook is the read-only snapshot of every category sheet, in source order.
type Workbook struct {
	Source string   `json:"source"`
	Sheets []*Sheet `json:"sheets"`
}

// Sheet returns the category with the given name, or nil.
func (w *Workbook) Sheet(name string) *Sheet {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Categories lists the category names in workbook order.
func (w *Workbook) Categories() []string {
	names := make([]string, 0, len(w.Sheets))
	for _, s := range w.Sheets {
		names = append(names, s.Name)
	}
	return names
}

// Sheet is one product category. Months holds the YYYY-MM column labels in
// chronological order; a label missing from Months means no data was
// collected for that period in this category.
type Sheet struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Months  []string `json:"months"`
	Outlets []Outlet `json:"outlets"`
}

// HasColumn reports whether the trimmed label exists in the header row.
func (s *Sheet) HasColumn(label string) bool {
	for _, c := range s.Columns {
		if c == label {
			return true
		}
	}
	return false
}

// HasMonth reports whether month has a column in this sheet.
func (s *Sheet) HasMonth(month string) bool {
	for _, m := range s.Months {
		if m == month {
			return true
		}
	}
	return false
}

// Outlet is a single row of a category sheet.
type Outlet struct {
	ID         string `json:"outlet_id"`
	Name       string `json:"outlet_name"`
	HeadOffice string `json:"head_office_name,omitempty"`
	Channel    string `json:"customer_channel,omitempty"`
	Segment    string `json:"customer_segment,omitempty"`
	Status     string `json:"customer_status,omitempty"`
	Warehouse  string `json:"warehouse,omitempty"`

	// Sales only holds months with a recorded value. A missing key is
	// untracked, which is distinct from a recorded zero.
	Sales map[string]float64 `json:"sales"`
}

// Amount returns the recorded value for month and whether one exists.
func (o Outlet) Amount(month string) (float64, bool) {
	v, ok := o.Sales[month]
	return v, ok
}
