package enums

// StockStatus is the shelf state shown next to a product.
type StockStatus string

const (
	StockStatusOut  StockStatus = "out"
	StockStatusLow  StockStatus = "low"
	StockStatusGood StockStatus = "good"
)

// String implements fmt.Stringer.
func (s StockStatus) String() string {
	return string(s)
}
