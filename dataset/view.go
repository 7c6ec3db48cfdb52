package dataset

// ============================================================================
// VIEW — Zero-Copy Column Access
// ============================================================================
// The engine never copies transactions. It reads through View.
//
// Implementations:
//   TableView[T] — reads typed rows via registered column accessors
//   SubView      — filtered subset (indices into parent)
// ============================================================================

// View provides indexed, typed access to the transaction table.
// The engine calls these in tight loops; implementations must stay cheap.
type View interface {
	Len() int
	Dimension(index int, dim Dimension) string
	Sales(index int) float64
	StoreID(index int) int64
}

// ============================================================================
// SUB VIEW — filtered subset
// ============================================================================

// SubView is a subset of a parent View holding only row indices.
type SubView struct {
	parent  View
	indices []int
}

// NewSubView returns a view over the given parent indices.
func NewSubView(parent View, indices []int) View {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Dimension(i int, dim Dimension) string {
	if i < 0 || i >= len(v.indices) {
		return ""
	}
	return v.parent.Dimension(v.indices[i], dim)
}

func (v *SubView) Sales(i int) float64 {
	if i < 0 || i >= len(v.indices) {
		return 0
	}
	return v.parent.Sales(v.indices[i])
}

func (v *SubView) StoreID(i int) int64 {
	if i < 0 || i >= len(v.indices) {
		return 0
	}
	return v.parent.StoreID(v.indices[i])
}

// ============================================================================
// COLUMNS — typed row adapter
// ============================================================================
//
// Usage:
//
//	cols := dataset.NewColumns[Transaction]().
//	    Dimension(dataset.Brand, func(t Transaction) string { return t.Brand }).
//	    Sales(func(t Transaction) float64 { return t.SalesValue }).
//	    Store(func(t Transaction) int64 { return t.StoreID })
//
//	view := cols.Bind(rows)
//
// ============================================================================

// Columns declares how a row type exposes dimensions and measures.
// Declare once, bind many times.
type Columns[T any] struct {
	dims  map[Dimension]func(T) string
	sales func(T) float64
	store func(T) int64
}

// NewColumns creates an empty column declaration for T.
func NewColumns[T any]() *Columns[T] {
	return &Columns[T]{dims: make(map[Dimension]func(T) string)}
}

// Dimension registers a dimension accessor.
func (c *Columns[T]) Dimension(dim Dimension, fn func(T) string) *Columns[T] {
	c.dims[dim] = fn
	return c
}

// Sales registers the sales value accessor.
func (c *Columns[T]) Sales(fn func(T) float64) *Columns[T] {
	c.sales = fn
	return c
}

// Store registers the store identifier accessor.
func (c *Columns[T]) Store(fn func(T) int64) *Columns[T] {
	c.store = fn
	return c
}

// Bind creates a View over data. The slice is referenced, not copied.
func (c *Columns[T]) Bind(data []T) View {
	return &TableView[T]{data: data, cols: c}
}

// TableView reads typed rows through registered accessors.
type TableView[T any] struct {
	data []T
	cols *Columns[T]
}

func (v *TableView[T]) Len() int { return len(v.data) }

func (v *TableView[T]) Dimension(i int, dim Dimension) string {
	if i < 0 || i >= len(v.data) {
		return ""
	}
	if fn, ok := v.cols.dims[dim]; ok {
		return fn(v.data[i])
	}
	return ""
}

func (v *TableView[T]) Sales(i int) float64 {
	if i < 0 || i >= len(v.data) || v.cols.sales == nil {
		return 0
	}
	return v.cols.sales(v.data[i])
}

func (v *TableView[T]) StoreID(i int) int64 {
	if i < 0 || i >= len(v.data) || v.cols.store == nil {
		return 0
	}
	return v.cols.store(v.data[i])
}
