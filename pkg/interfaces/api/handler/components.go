package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vsinha/stockmrp/pkg/application/dto"
	"github.com/vsinha/stockmrp/pkg/application/services/inventory"
	"github.com/vsinha/stockmrp/pkg/domain/entities"
	"github.com/vsinha/stockmrp/pkg/interfaces/api/apierror"
)

type ComponentsHandler struct{ svc *inventory.Service }

func NewComponentsHandler(svc *inventory.Service) *ComponentsHandler {
	return &ComponentsHandler{svc: svc}
}

func (h *ComponentsHandler) List(c *gin.Context) {
	components, err := h.svc.ListComponents(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, components)
}

func (h *ComponentsHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	component, err := h.svc.GetComponent(c.Request.Context(), entities.ComponentID(id))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, component)
}

func (h *ComponentsHandler) Create(c *gin.Context) {
	var req dto.CreateComponentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	component, err := h.svc.CreateComponent(c.Request.Context(), req.Name, req.SpillageCoefficient, entities.Quantity(req.InStock))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, component)
}

func (h *ComponentsHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateComponentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	component, err := h.svc.UpdateComponent(c.Request.Context(), entities.ComponentID(id), inventory.ComponentUpdate{
		Name:                req.Name,
		SpillageCoefficient: req.SpillageCoefficient,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, component)
}

func (h *ComponentsHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteComponent(c.Request.Context(), entities.ComponentID(id)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AdjustStock accepts the adjustment either as ?adjustment=N or as a JSON body
func (h *ComponentsHandler) AdjustStock(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req dto.AdjustStockRequest
	if raw, present := c.GetQuery("adjustment"); present {
		delta, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, &apierror.APIError{Detail: "invalid adjustment", Kind: "validation"})
			return
		}
		req.Adjustment = delta
	} else if !bindAndValidate(c, &req) {
		return
	}

	component, err := h.svc.AdjustStock(c.Request.Context(), entities.ComponentID(id), entities.Quantity(req.Adjustment))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, component)
}
