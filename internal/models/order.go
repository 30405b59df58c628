package models

import "time"

// DeliveryStatus is the logistics state of an order.
type DeliveryStatus string

const (
	StatusPending   DeliveryStatus = "Pending"
	StatusOnTheWay  DeliveryStatus = "On the Way"
	StatusDelivered DeliveryStatus = "Delivered"
	StatusCancelled DeliveryStatus = "Not Delivered / Cancelled"
)

// DeliveryStatuses lists every accepted status in display order.
var DeliveryStatuses = []DeliveryStatus{StatusPending, StatusOnTheWay, StatusDelivered, StatusCancelled}

// Valid reports whether s is one of the known delivery statuses.
func (s DeliveryStatus) Valid() bool {
	for _, known := range DeliveryStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// OrderDateLayout is the wire and storage format of Order.OrderDate.
const OrderDateLayout = "2006-01-02"

// Order is a stored customer order.
//
// TotalPrice is derived from Quantity, PricePerProduct and Discount and is
// always recomputed by the service; OrderIDNum is assigned once by the
// repository on creation.
type Order struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	OrderIDNum int64  `json:"orderIdNum" gorm:"uniqueIndex;not null" bson:"orderIdNum"`

	CustomerName    string `json:"customerName" gorm:"size:200;not null" bson:"customerName"`
	PhoneNumber     string `json:"phoneNumber" gorm:"size:32;not null" bson:"phoneNumber"`
	DeliveryAddress string `json:"deliveryAddress" gorm:"size:500;not null" bson:"deliveryAddress"`
	OrderNotes      string `json:"orderNotes" gorm:"size:2000" bson:"orderNotes"`

	ProductName     string `json:"productName" gorm:"size:200;not null" bson:"productName"`
	ProductCategory string `json:"productCategory" gorm:"size:100" bson:"productCategory"`
	ProductImage    string `json:"productImage,omitempty" bson:"productImage,omitempty"` // inline data: URI, unbounded text column

	Quantity        int     `json:"quantity" gorm:"not null" bson:"quantity"`
	PricePerProduct float64 `json:"pricePerProduct" gorm:"not null" bson:"pricePerProduct"`
	Discount        float64 `json:"discount" gorm:"not null;default:0" bson:"discount"`
	TotalPrice      float64 `json:"totalPrice" gorm:"not null;index" bson:"totalPrice"`

	OrderDate      string         `json:"orderDate" gorm:"size:10;index" bson:"orderDate"`
	DeliveryStatus DeliveryStatus `json:"deliveryStatus" gorm:"size:32;index;not null" bson:"deliveryStatus"`

	CreatedAt time.Time `json:"createdAt" gorm:"index" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// OrderDraft is the create payload. TotalPrice is accepted so existing
// clients keep working, but it is never stored as sent.
type OrderDraft struct {
	CustomerName    string         `json:"customerName" validate:"required,max=200"`
	PhoneNumber     string         `json:"phoneNumber" validate:"required,max=32"`
	DeliveryAddress string         `json:"deliveryAddress" validate:"required,max=500"`
	OrderNotes      string         `json:"orderNotes" validate:"max=2000"`
	ProductName     string         `json:"productName" validate:"required,max=200"`
	ProductCategory string         `json:"productCategory" validate:"max=100"`
	ProductImage    string         `json:"productImage"`
	Quantity        int            `json:"quantity" validate:"required,gte=1"`
	PricePerProduct *float64       `json:"pricePerProduct" validate:"required,gte=0"`
	Discount        float64        `json:"discount" validate:"gte=0,lte=100"`
	TotalPrice      *float64       `json:"totalPrice,omitempty"`
	OrderDate       string         `json:"orderDate" validate:"omitempty,datetime=2006-01-02"`
	DeliveryStatus  DeliveryStatus `json:"deliveryStatus" validate:"omitempty,deliverystatus"`
}

// OrderUpdate lists the mutable fields of an order. Nil fields are left
// untouched; TotalPrice is ignored for the same reason as in OrderDraft.
type OrderUpdate struct {
	CustomerName    *string         `json:"customerName" validate:"omitnil,min=1,max=200"`
	PhoneNumber     *string         `json:"phoneNumber" validate:"omitnil,min=1,max=32"`
	DeliveryAddress *string         `json:"deliveryAddress" validate:"omitnil,min=1,max=500"`
	OrderNotes      *string         `json:"orderNotes" validate:"omitnil,max=2000"`
	ProductName     *string         `json:"productName" validate:"omitnil,min=1,max=200"`
	ProductCategory *string         `json:"productCategory" validate:"omitnil,max=100"`
	ProductImage    *string         `json:"productImage"` // "" removes the image
	Quantity        *int            `json:"quantity" validate:"omitnil,gte=1"`
	PricePerProduct *float64        `json:"pricePerProduct" validate:"omitnil,gte=0"`
	Discount        *float64        `json:"discount" validate:"omitnil,gte=0,lte=100"`
	TotalPrice      *float64        `json:"totalPrice,omitempty"`
	OrderDate       *string         `json:"orderDate" validate:"omitnil,datetime=2006-01-02"`
	DeliveryStatus  *DeliveryStatus `json:"deliveryStatus" validate:"omitnil,deliverystatus"`
}

// AnalyticsSnapshot summarizes the live order set. It is never persisted.
type AnalyticsSnapshot struct {
	TotalOrders     int     `json:"totalOrders"`
	DeliveredOrders int     `json:"deliveredOrders"`
	PendingOrders   int     `json:"pendingOrders"`
	Revenue         float64 `json:"revenue"`
}
