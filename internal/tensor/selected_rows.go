package tensor

// SelectedRows is a sparse value: a set of row indices into a conceptual
// tall tensor of the given height, plus a dense value tensor holding one
// row of data per selected index. Only the value tensor carries a backing
// allocation; the index slice is bookkeeping, not accounted storage.
type SelectedRows struct {
	rows   []int64
	height int64
	value  *Tensor
}

// NewSelectedRows creates an empty sparse value with an empty value tensor.
func NewSelectedRows() *SelectedRows {
	return &SelectedRows{value: &Tensor{}}
}

// Rows returns the selected row indices.
func (s *SelectedRows) Rows() []int64 { return s.rows }

// SetRows replaces the selected row indices.
func (s *SelectedRows) SetRows(rows []int64) {
	s.rows = append([]int64(nil), rows...)
}

// Height returns the conceptual number of rows in the full tensor.
func (s *SelectedRows) Height() int64 { return s.height }

// SetHeight sets the conceptual number of rows in the full tensor.
func (s *SelectedRows) SetHeight(h int64) { s.height = h }

// Value returns the dense tensor holding the selected rows' data.
func (s *SelectedRows) Value() *Tensor { return s.value }

// Reset releases the value tensor's storage and clears the indices.
func (s *SelectedRows) Reset() {
	s.rows = nil
	s.height = 0
	s.value.Reset()
}
