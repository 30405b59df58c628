package models

// OrderSort selects the ordering of an order listing.
type OrderSort string

const (
	// SortCreatedDesc is the default: most recently created first.
	SortCreatedDesc OrderSort = ""
	SortDateDesc    OrderSort = "date-desc"
	SortDateAsc     OrderSort = "date-asc"
	SortPriceDesc   OrderSort = "price-desc"
	SortPriceAsc    OrderSort = "price-asc"
)

// Valid reports whether s is a supported sort key.
func (s OrderSort) Valid() bool {
	switch s {
	case SortCreatedDesc, SortDateDesc, SortDateAsc, SortPriceDesc, SortPriceAsc:
		return true
	}
	return false
}

// OrderQuery narrows and pages an order listing. Zero values mean "all".
type OrderQuery struct {
	Sort   OrderSort
	Search string
	Status DeliveryStatus
	Page   int
	Limit  int
}
