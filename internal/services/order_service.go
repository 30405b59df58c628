package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"orderdesk/internal/analytics"
	"orderdesk/internal/models"
	"orderdesk/internal/pricing"
	"orderdesk/internal/repositories"
	"orderdesk/pkg/rabbitmq"

	"github.com/go-playground/validator/v10"
)

// MaxPageSize caps OrderQuery.Limit.
const MaxPageSize = 100

// EventPublisher receives an event after every committed order change.
type EventPublisher interface {
	PublishOrderEvent(event rabbitmq.OrderEvent) error
}

// OrderService handles business logic related to orders.
type OrderService struct {
	orderRepo     repositories.OrderRepository
	publisher     EventPublisher
	validate      *validator.Validate
	maxImageBytes int
	now           func() time.Time
}

// NewOrderService creates a new OrderService. publisher may be nil, in which
// case no events are sent. maxImageBytes limits the inline product image;
// zero or less disables images entirely.
func NewOrderService(orderRepo repositories.OrderRepository, publisher EventPublisher, maxImageBytes int) *OrderService {
	return &OrderService{
		orderRepo:     orderRepo,
		publisher:     publisher,
		validate:      NewValidator(),
		maxImageBytes: maxImageBytes,
		now:           time.Now,
	}
}

// GetOrder retrieves a single order by its ID.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return s.orderRepo.GetByID(ctx, id)
}

// ListOrders returns the page of orders selected by q together with the
// number of orders that matched before paging. Filters run on the already
// sorted list.
func (s *OrderService) ListOrders(ctx context.Context, q models.OrderQuery) ([]models.Order, int, error) {
	if err := checkQuery(q); err != nil {
		return nil, 0, err
	}

	orders, err := s.orderRepo.List(ctx, q.Sort)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	search := strings.ToLower(strings.TrimSpace(q.Search))
	if search != "" || q.Status != "" {
		filtered := orders[:0]
		for _, o := range orders {
			if q.Status != "" && o.DeliveryStatus != q.Status {
				continue
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(o.CustomerName), search) &&
				!strings.Contains(strings.ToLower(o.PhoneNumber), search) {
				continue
			}
			filtered = append(filtered, o)
		}
		orders = filtered
	}

	total := len(orders)
	if q.Limit > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		// Compare by division so a huge page cannot overflow the offset.
		start := total
		if page-1 <= total/q.Limit {
			start = (page - 1) * q.Limit
		}
		if start > total {
			start = total
		}
		end := start + q.Limit
		if end > total {
			end = total
		}
		orders = orders[start:end]
	}
	return orders, total, nil
}

// CreateOrder validates the draft, prices it and stores it as a new order.
// Any total sent by the client is discarded.
func (s *OrderService) CreateOrder(ctx context.Context, draft models.OrderDraft) (*models.Order, error) {
	normalizeDraft(&draft)
	if err := s.validate.Struct(draft); err != nil {
		return nil, toValidationError(err)
	}
	if err := s.checkImage(draft.ProductImage); err != nil {
		return nil, err
	}

	order := &models.Order{
		CustomerName:    draft.CustomerName,
		PhoneNumber:     draft.PhoneNumber,
		DeliveryAddress: draft.DeliveryAddress,
		OrderNotes:      draft.OrderNotes,
		ProductName:     draft.ProductName,
		ProductCategory: draft.ProductCategory,
		ProductImage:    draft.ProductImage,
		Quantity:        draft.Quantity,
		PricePerProduct: *draft.PricePerProduct,
		Discount:        draft.Discount,
		OrderDate:       draft.OrderDate,
		DeliveryStatus:  draft.DeliveryStatus,
	}
	if order.OrderDate == "" {
		order.OrderDate = s.now().UTC().Format(models.OrderDateLayout)
	}
	if order.DeliveryStatus == "" {
		order.DeliveryStatus = models.StatusPending
	}
	order.TotalPrice = pricing.ComputeTotal(order.Quantity, order.PricePerProduct, order.Discount)

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	s.publish(rabbitmq.OrderCreated, order)
	return order, nil
}

// UpdateOrder merges the supplied fields into the stored order and
// recomputes its total from the resulting quantity, price and discount.
func (s *OrderService) UpdateOrder(ctx context.Context, id string, upd models.OrderUpdate) (*models.Order, error) {
	normalizeUpdate(&upd)
	if err := s.validate.Struct(upd); err != nil {
		return nil, toValidationError(err)
	}
	if upd.ProductImage != nil {
		if err := s.checkImage(*upd.ProductImage); err != nil {
			return nil, err
		}
	}

	order, err := s.orderRepo.Update(ctx, id, func(o *models.Order) error {
		applyUpdate(o, upd)
		o.TotalPrice = pricing.ComputeTotal(o.Quantity, o.PricePerProduct, o.Discount)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update order %s: %w", id, err)
	}

	s.publish(rabbitmq.OrderUpdated, order)
	return order, nil
}

// DeleteOrder permanently removes an order.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	if err := s.orderRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, err)
	}
	s.publish(rabbitmq.OrderDeleted, &models.Order{ID: id})
	return nil
}

// Analytics summarizes the current order set.
func (s *OrderService) Analytics(ctx context.Context) (models.AnalyticsSnapshot, error) {
	orders, err := s.orderRepo.List(ctx, models.SortCreatedDesc)
	if err != nil {
		return models.AnalyticsSnapshot{}, fmt.Errorf("failed to load orders for analytics: %w", err)
	}
	return analytics.Summarize(orders), nil
}

func (s *OrderService) checkImage(image string) error {
	if image == "" {
		return nil
	}
	if s.maxImageBytes <= 0 {
		return newFieldError("productImage", "images are disabled")
	}
	if len(image) > s.maxImageBytes {
		return newFieldError("productImage", fmt.Sprintf("must be at most %d bytes", s.maxImageBytes))
	}
	if !strings.HasPrefix(image, "data:image/") || s.validate.Var(image, "datauri") != nil {
		return newFieldError("productImage", "must be a base64 data URI of an image")
	}
	return nil
}

func (s *OrderService) publish(eventType string, order *models.Order) {
	if s.publisher == nil {
		return
	}
	event := rabbitmq.OrderEvent{
		Type:           eventType,
		OrderID:        order.ID,
		OrderIDNum:     order.OrderIDNum,
		DeliveryStatus: string(order.DeliveryStatus),
		TotalPrice:     order.TotalPrice,
		OccurredAt:     s.now().UTC(),
	}
	if err := s.publisher.PublishOrderEvent(event); err != nil {
		log.Printf("Warning: failed to publish %s event for order %s: %v", eventType, order.ID, err)
	}
}

func checkQuery(q models.OrderQuery) error {
	fields := map[string]string{}
	if !q.Sort.Valid() {
		fields["sort"] = "must be one of date-desc, date-asc, price-desc, price-asc"
	}
	if q.Status != "" && !q.Status.Valid() {
		fields["status"] = "must be one of " + statusList()
	}
	if q.Page < 0 {
		fields["page"] = "must not be negative"
	}
	if q.Limit < 0 || q.Limit > MaxPageSize {
		fields["limit"] = fmt.Sprintf("must be between 0 and %d", MaxPageSize)
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func normalizeDraft(d *models.OrderDraft) {
	d.CustomerName = strings.TrimSpace(d.CustomerName)
	d.PhoneNumber = strings.TrimSpace(d.PhoneNumber)
	d.DeliveryAddress = strings.TrimSpace(d.DeliveryAddress)
	d.OrderNotes = strings.TrimSpace(d.OrderNotes)
	d.ProductName = strings.TrimSpace(d.ProductName)
	d.ProductCategory = strings.TrimSpace(d.ProductCategory)
	d.OrderDate = strings.TrimSpace(d.OrderDate)
}

func normalizeUpdate(u *models.OrderUpdate) {
	trimPtr(u.CustomerName)
	trimPtr(u.PhoneNumber)
	trimPtr(u.DeliveryAddress)
	trimPtr(u.OrderNotes)
	trimPtr(u.ProductName)
	trimPtr(u.ProductCategory)
	trimPtr(u.OrderDate)
}

func applyUpdate(o *models.Order, u models.OrderUpdate) {
	if u.CustomerName != nil {
		o.CustomerName = *u.CustomerName
	}
	if u.PhoneNumber != nil {
		o.PhoneNumber = *u.PhoneNumber
	}
	if u.DeliveryAddress != nil {
		o.DeliveryAddress = *u.DeliveryAddress
	}
	if u.OrderNotes != nil {
		o.OrderNotes = *u.OrderNotes
	}
	if u.ProductName != nil {
		o.ProductName = *u.ProductName
	}
	if u.ProductCategory != nil {
		o.ProductCategory = *u.ProductCategory
	}
	if u.ProductImage != nil {
		o.ProductImage = *u.ProductImage
	}
	if u.Quantity != nil {
		o.Quantity = *u.Quantity
	}
	if u.PricePerProduct != nil {
		o.PricePerProduct = *u.PricePerProduct
	}
	if u.Discount != nil {
		o.Discount = *u.Discount
	}
	if u.OrderDate != nil {
		o.OrderDate = *u.OrderDate
	}
	if u.DeliveryStatus != nil {
		o.DeliveryStatus = *u.DeliveryStatus
	}
}
