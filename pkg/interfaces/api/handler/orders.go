package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vsinha/stockmrp/pkg/application/dto"
	"github.com/vsinha/stockmrp/pkg/application/services/orders"
	"github.com/vsinha/stockmrp/pkg/domain/entities"
)

type OrdersHandler struct{ svc *orders.Service }

func NewOrdersHandler(svc *orders.Service) *OrdersHandler {
	return &OrdersHandler{svc: svc}
}

func (h *OrdersHandler) List(c *gin.Context) {
	summary, err := h.svc.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *OrdersHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.svc.Get(c.Request.Context(), entities.OrderID(id))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Create places the order and tries to allocate it; a pending result is still 201
func (h *OrdersHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	result, err := h.svc.CreateOrder(c.Request.Context(), entities.ProductID(req.ProductID), entities.Quantity(req.Quantity))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *OrdersHandler) Requirements(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	reqs, err := h.svc.ComputeRequirements(c.Request.Context(), entities.OrderID(id))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

func (h *OrdersHandler) Allocate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := h.svc.Allocate(c.Request.Context(), entities.OrderID(id)); err != nil {
		fail(c, err)
		return
	}
	h.Get(c)
}

func (h *OrdersHandler) Complete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := h.svc.Complete(c.Request.Context(), entities.OrderID(id)); err != nil {
		fail(c, err)
		return
	}
	h.Get(c)
}
