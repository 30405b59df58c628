package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"orderdesk/internal/models"
	"orderdesk/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes with the Fiber app. guard runs
// before every order route and is scoped to those paths only.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, guard ...fiber.Handler) {
	orderRoutes := router.Group("/orders", guard...)
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Put("/:id", h.HandleUpdateOrder)
	orderRoutes.Delete("/:id", h.HandleDeleteOrder)

	router.Get("/analytics", append(guard, h.HandleGetAnalytics)...)
}

// HandleGetOrders lists orders. The number of matches before paging is
// returned in the X-Total-Count header.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	q, err := parseOrderQuery(c)
	if err != nil {
		return respondError(c, "parsing order query", err)
	}

	orders, total, err := h.service.ListOrders(c.UserContext(), q)
	if err != nil {
		return respondError(c, "listing orders", err)
	}
	c.Set("X-Total-Count", strconv.Itoa(total))
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order by its ID.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	orderID := utils.CopyString(c.Params("id"))
	order, err := h.service.GetOrder(c.UserContext(), orderID)
	if err != nil {
		return respondError(c, "getting order "+orderID, err)
	}
	return c.JSON(order)
}

// HandleCreateOrder creates a new order.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var draft models.OrderDraft
	if err := c.BodyParser(&draft); err != nil {
		return badRequest(c, err)
	}

	createdOrder, err := h.service.CreateOrder(c.UserContext(), draft)
	if err != nil {
		return respondError(c, "creating order", err)
	}

	return c.Status(fiber.StatusCreated).JSON(createdOrder)
}

// HandleUpdateOrder applies a partial update to an existing order. Fields
// outside OrderUpdate, such as id or orderIdNum, are rejected.
func (h *OrderHandler) HandleUpdateOrder(c *fiber.Ctx) error {
	orderID := utils.CopyString(c.Params("id"))

	var upd models.OrderUpdate
	if err := decodeStrict(c.Body(), &upd); err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			return respondError(c, "updating order "+orderID, err)
		}
		return badRequest(c, err)
	}

	updatedOrder, err := h.service.UpdateOrder(c.UserContext(), orderID, upd)
	if err != nil {
		return respondError(c, "updating order "+orderID, err)
	}
	return c.JSON(updatedOrder)
}

// HandleDeleteOrder permanently removes an order.
func (h *OrderHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	orderID := utils.CopyString(c.Params("id"))
	if err := h.service.DeleteOrder(c.UserContext(), orderID); err != nil {
		return respondError(c, "deleting order "+orderID, err)
	}
	return c.JSON(fiber.Map{
		"message": "Order deleted",
	})
}

// HandleGetAnalytics returns counts and revenue over all orders.
func (h *OrderHandler) HandleGetAnalytics(c *fiber.Ctx) error {
	snap, err := h.service.Analytics(c.UserContext())
	if err != nil {
		return respondError(c, "computing analytics", err)
	}
	return c.JSON(snap)
}

func parseOrderQuery(c *fiber.Ctx) (models.OrderQuery, error) {
	q := models.OrderQuery{
		Sort:   models.OrderSort(c.Query("sort")),
		Search: c.Query("search"),
		Status: models.DeliveryStatus(c.Query("status")),
	}
	fields := map[string]string{}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"page", &q.Page}, {"limit", &q.Limit}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			fields[p.name] = "must be an integer"
			continue
		}
		*p.dst = n
	}
	if len(fields) > 0 {
		return q, &services.ValidationError{Fields: fields}
	}
	return q, nil
}

// decodeStrict decodes a single JSON object into dst and reports unknown
// fields as validation errors.
func decodeStrict(body []byte, dst interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if field, ok := unknownField(err); ok {
			return &services.ValidationError{Fields: map[string]string{field: "cannot be updated"}}
		}
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return err
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func unknownField(err error) (string, bool) {
	const prefix = "json: unknown field "
	msg := err.Error()
	if !strings.HasPrefix(msg, prefix) {
		return "", false
	}
	field, uerr := strconv.Unquote(strings.TrimPrefix(msg, prefix))
	if uerr != nil {
		return strings.Trim(strings.TrimPrefix(msg, prefix), `"`), true
	}
	return field, true
}
