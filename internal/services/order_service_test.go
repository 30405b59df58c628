package services_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"orderdesk/internal/models"
	"orderdesk/internal/repositories"
	"orderdesk/internal/services"
	"orderdesk/pkg/rabbitmq"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderEvent(event rabbitmq.OrderEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

// FailingOrderRepository is a mock OrderRepository for storage failures.
type FailingOrderRepository struct {
	mock.Mock
}

func (m *FailingOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *FailingOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *FailingOrderRepository) List(ctx context.Context, sortBy models.OrderSort) ([]models.Order, error) {
	args := m.Called(ctx, sortBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *FailingOrderRepository) Update(ctx context.Context, id string, mutate repositories.OrderMutation) (*models.Order, error) {
	args := m.Called(ctx, id, mutate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *FailingOrderRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

const testImage = "data:image/png;base64,iVBORw0KGgo="

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }

func statusPtr(v models.DeliveryStatus) *models.DeliveryStatus { return &v }

func validDraft() models.OrderDraft {
	return models.OrderDraft{
		CustomerName:    "Alice",
		PhoneNumber:     "555-0100",
		DeliveryAddress: "1 Main St",
		ProductName:     "Widget",
		ProductCategory: "Tools",
		Quantity:        2,
		PricePerProduct: floatPtr(250),
		Discount:        10,
	}
}

func newOrderService(t *testing.T) (*services.OrderService, *repositories.MockOrderRepository) {
	t.Helper()
	repo := repositories.NewMockOrderRepository()
	return services.NewOrderService(repo, nil, 1024), repo
}

func TestOrderService_CreateOrder(t *testing.T) {
	ctx := context.Background()
	svc, _ := newOrderService(t)

	draft := validDraft()
	draft.CustomerName = "  Alice  "
	draft.TotalPrice = floatPtr(1)

	order, err := svc.CreateOrder(ctx, draft)
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, int64(1), order.OrderIDNum)
	assert.Equal(t, "Alice", order.CustomerName)
	assert.Equal(t, 450.0, order.TotalPrice)
	assert.Equal(t, models.StatusPending, order.DeliveryStatus)
	_, err = time.Parse(models.OrderDateLayout, order.OrderDate)
	assert.NoError(t, err)

	stored, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 450.0, stored.TotalPrice)

	draft = validDraft()
	draft.OrderDate = "2024-02-29"
	draft.DeliveryStatus = models.StatusDelivered
	draft.ProductImage = testImage
	order, err = svc.CreateOrder(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, int64(2), order.OrderIDNum)
	assert.Equal(t, "2024-02-29", order.OrderDate)
	assert.Equal(t, models.StatusDelivered, order.DeliveryStatus)
	assert.Equal(t, testImage, order.ProductImage)
}

func TestOrderService_CreateOrderValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(d *models.OrderDraft)
		fields []string
	}{
		{"blank customer", func(d *models.OrderDraft) { d.CustomerName = "   " }, []string{"customerName"}},
		{"missing phone and address", func(d *models.OrderDraft) {
			d.PhoneNumber = ""
			d.DeliveryAddress = ""
		}, []string{"phoneNumber", "deliveryAddress"}},
		{"zero quantity", func(d *models.OrderDraft) { d.Quantity = 0 }, []string{"quantity"}},
		{"missing price", func(d *models.OrderDraft) { d.PricePerProduct = nil }, []string{"pricePerProduct"}},
		{"negative price", func(d *models.OrderDraft) { d.PricePerProduct = floatPtr(-1) }, []string{"pricePerProduct"}},
		{"discount above 100", func(d *models.OrderDraft) { d.Discount = 150 }, []string{"discount"}},
		{"bad date", func(d *models.OrderDraft) { d.OrderDate = "05/01/2024" }, []string{"orderDate"}},
		{"unknown status", func(d *models.OrderDraft) { d.DeliveryStatus = "Lost" }, []string{"deliveryStatus"}},
		{"image not a data uri", func(d *models.OrderDraft) { d.ProductImage = "http://example.com/a.png" }, []string{"productImage"}},
		{"image too large", func(d *models.OrderDraft) {
			d.ProductImage = "data:image/png;base64," + strings.Repeat("AAAA", 512)
		}, []string{"productImage"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newOrderService(t)
			draft := validDraft()
			tt.modify(&draft)

			_, err := svc.CreateOrder(context.Background(), draft)
			var verr *services.ValidationError
			require.ErrorAs(t, err, &verr)
			for _, f := range tt.fields {
				assert.Contains(t, verr.Fields, f)
			}

			all, err := repo.List(context.Background(), models.SortCreatedDesc)
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestOrderService_UpdateOrder(t *testing.T) {
	ctx := context.Background()
	svc, _ := newOrderService(t)

	created, err := svc.CreateOrder(ctx, validDraft())
	require.NoError(t, err)

	// Changing only the quantity reprices with the stored price and discount.
	updated, err := svc.UpdateOrder(ctx, created.ID, models.OrderUpdate{Quantity: intPtr(4)})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)
	assert.Equal(t, 900.0, updated.TotalPrice)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.OrderIDNum, updated.OrderIDNum)
	assert.Equal(t, "Alice", updated.CustomerName)

	// A client supplied total is ignored.
	updated, err = svc.UpdateOrder(ctx, created.ID, models.OrderUpdate{
		Discount:   floatPtr(0),
		TotalPrice: floatPtr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, updated.TotalPrice)

	updated, err = svc.UpdateOrder(ctx, created.ID, models.OrderUpdate{
		DeliveryStatus: statusPtr(models.StatusOnTheWay),
		CustomerName:   strPtr(" Alicia "),
		ProductImage:   strPtr(testImage),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusOnTheWay, updated.DeliveryStatus)
	assert.Equal(t, "Alicia", updated.CustomerName)
	assert.Equal(t, testImage, updated.ProductImage)
	assert.Equal(t, 1000.0, updated.TotalPrice)

	// Empty string removes the image.
	updated, err = svc.UpdateOrder(ctx, created.ID, models.OrderUpdate{ProductImage: strPtr("")})
	require.NoError(t, err)
	assert.Empty(t, updated.ProductImage)
}

func TestOrderService_UpdateOrderRejectsInvalidFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newOrderService(t)

	created, err := svc.CreateOrder(ctx, validDraft())
	require.NoError(t, err)

	_, err = svc.UpdateOrder(ctx, created.ID, models.OrderUpdate{
		Quantity:       intPtr(0),
		CustomerName:   strPtr("  "),
		DeliveryStatus: statusPtr("Lost"),
	})
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "quantity")
	assert.Contains(t, verr.Fields, "customerName")
	assert.Contains(t, verr.Fields, "deliveryStatus")

	stored, err := svc.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Quantity, stored.Quantity)
	assert.Equal(t, created.TotalPrice, stored.TotalPrice)

	_, err = svc.UpdateOrder(ctx, "missing", models.OrderUpdate{Quantity: intPtr(1)})
	assert.ErrorIs(t, err, repositories.ErrOrderNotFound)
}

func TestOrderService_DeleteOrder(t *testing.T) {
	ctx := context.Background()
	svc, _ := newOrderService(t)

	created, err := svc.CreateOrder(ctx, validDraft())
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrder(ctx, created.ID))
	_, err = svc.GetOrder(ctx, created.ID)
	assert.ErrorIs(t, err, repositories.ErrOrderNotFound)

	err = svc.DeleteOrder(ctx, created.ID)
	assert.ErrorIs(t, err, repositories.ErrOrderNotFound)
}

func TestOrderService_ListOrders(t *testing.T) {
	ctx := context.Background()
	svc, _ := newOrderService(t)

	for _, in := range []struct {
		name, phone string
		price       float64
		status      models.DeliveryStatus
	}{
		{"Alice Smith", "555-0100", 10, models.StatusPending},
		{"Bob Jones", "555-0199", 30, models.StatusDelivered},
		{"Carol Smith", "777-1234", 20, models.StatusDelivered},
	} {
		d := validDraft()
		d.CustomerName = in.name
		d.PhoneNumber = in.phone
		d.Quantity = 1
		d.Discount = 0
		d.PricePerProduct = floatPtr(in.price)
		d.DeliveryStatus = in.status
		_, err := svc.CreateOrder(ctx, d)
		require.NoError(t, err)
	}

	names := func(orders []models.Order) []string {
		out := make([]string, 0, len(orders))
		for _, o := range orders {
			out = append(out, o.CustomerName)
		}
		return out
	}

	orders, total, err := svc.ListOrders(ctx, models.OrderQuery{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"Carol Smith", "Bob Jones", "Alice Smith"}, names(orders))

	orders, total, err = svc.ListOrders(ctx, models.OrderQuery{Sort: models.SortPriceDesc})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"Bob Jones", "Carol Smith", "Alice Smith"}, names(orders))

	orders, total, err = svc.ListOrders(ctx, models.OrderQuery{Search: "SMITH"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.ElementsMatch(t, []string{"Alice Smith", "Carol Smith"}, names(orders))

	orders, _, err = svc.ListOrders(ctx, models.OrderQuery{Search: "0199"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob Jones"}, names(orders))

	orders, total, err = svc.ListOrders(ctx, models.OrderQuery{Status: models.StatusDelivered, Sort: models.SortPriceAsc})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, []string{"Carol Smith", "Bob Jones"}, names(orders))

	orders, total, err = svc.ListOrders(ctx, models.OrderQuery{Sort: models.SortPriceAsc, Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"Bob Jones"}, names(orders))

	orders, total, err = svc.ListOrders(ctx, models.OrderQuery{Page: 5, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, orders)

	orders, total, err = svc.ListOrders(ctx, models.OrderQuery{Page: math.MaxInt, Limit: services.MaxPageSize})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, orders)

	_, _, err = svc.ListOrders(ctx, models.OrderQuery{Sort: "name", Status: "Lost", Limit: 1000})
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "sort")
	assert.Contains(t, verr.Fields, "status")
	assert.Contains(t, verr.Fields, "limit")
}

func TestOrderService_Analytics(t *testing.T) {
	ctx := context.Background()
	svc, _ := newOrderService(t)

	snap, err := svc.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.AnalyticsSnapshot{}, snap)

	for _, status := range []models.DeliveryStatus{models.StatusDelivered, models.StatusPending, models.StatusOnTheWay} {
		d := validDraft()
		d.DeliveryStatus = status
		_, err := svc.CreateOrder(ctx, d)
		require.NoError(t, err)
	}

	snap, err = svc.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.TotalOrders)
	assert.Equal(t, 1, snap.DeliveredOrders)
	assert.Equal(t, 1, snap.PendingOrders)
	assert.Equal(t, 1350.0, snap.Revenue)
}

func TestOrderService_PublishesEvents(t *testing.T) {
	ctx := context.Background()
	pub := new(MockPublisher)
	svc := services.NewOrderService(repositories.NewMockOrderRepository(), pub, 0)

	pub.On("PublishOrderEvent", mock.MatchedBy(func(e rabbitmq.OrderEvent) bool {
		return e.Type == rabbitmq.OrderCreated && e.OrderIDNum == 1 && e.TotalPrice == 450
	})).Return(nil).Once()
	created, err := svc.CreateOrder(ctx, validDraft())
	require.NoError(t, err)

	// A failed publish does not undo the committed change.
	pub.On("PublishOrderEvent", mock.MatchedBy(func(e rabbitmq.OrderEvent) bool {
		return e.Type == rabbitmq.OrderUpdated && e.DeliveryStatus == string(models.StatusDelivered)
	})).Return(errors.New("broker down")).Once()
	_, err = svc.UpdateOrder(ctx, created.ID, models.OrderUpdate{DeliveryStatus: statusPtr(models.StatusDelivered)})
	require.NoError(t, err)

	pub.On("PublishOrderEvent", mock.MatchedBy(func(e rabbitmq.OrderEvent) bool {
		return e.Type == rabbitmq.OrderDeleted && e.OrderID == created.ID
	})).Return(nil).Once()
	require.NoError(t, svc.DeleteOrder(ctx, created.ID))

	pub.AssertExpectations(t)
}

func TestOrderService_ImagesDisabled(t *testing.T) {
	svc := services.NewOrderService(repositories.NewMockOrderRepository(), nil, 0)
	d := validDraft()
	d.ProductImage = testImage

	_, err := svc.CreateOrder(context.Background(), d)
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "productImage")
}

func TestOrderService_StorageErrors(t *testing.T) {
	ctx := context.Background()
	storeErr := errors.New("connection reset")
	repo := new(FailingOrderRepository)
	pub := new(MockPublisher)
	svc := services.NewOrderService(repo, pub, 0)

	repo.On("Create", ctx, mock.AnythingOfType("*models.Order")).Return(storeErr).Once()
	_, err := svc.CreateOrder(ctx, validDraft())
	assert.ErrorIs(t, err, storeErr)

	repo.On("List", ctx, models.SortCreatedDesc).Return(nil, storeErr).Twice()
	_, _, err = svc.ListOrders(ctx, models.OrderQuery{})
	assert.ErrorIs(t, err, storeErr)
	_, err = svc.Analytics(ctx)
	assert.ErrorIs(t, err, storeErr)

	repo.On("Delete", ctx, "abc").Return(storeErr).Once()
	assert.ErrorIs(t, svc.DeleteOrder(ctx, "abc"), storeErr)

	repo.AssertExpectations(t)
	pub.AssertNotCalled(t, "PublishOrderEvent", mock.Anything)
}
