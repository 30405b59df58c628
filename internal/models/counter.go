package models

// OrderSequence names the counter that hands out Order.OrderIDNum values.
const OrderSequence = "orders"

// Counter is a named, monotonically increasing sequence.
type Counter struct {
	Name  string `gorm:"primaryKey;size:64" bson:"_id"`
	Value int64  `gorm:"column:current_value;not null;default:0" bson:"value"`
}
