package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vsinha/stockmrp/pkg/application/dto"
	"github.com/vsinha/stockmrp/pkg/application/services/bom"
	"github.com/vsinha/stockmrp/pkg/application/services/capacity"
	"github.com/vsinha/stockmrp/pkg/domain/entities"
)

type ProductsHandler struct {
	catalog  *bom.Service
	capacity *capacity.Calculator
	workers  int
}

func NewProductsHandler(catalog *bom.Service, calculator *capacity.Calculator, workers int) *ProductsHandler {
	return &ProductsHandler{catalog: catalog, capacity: calculator, workers: workers}
}

func (h *ProductsHandler) List(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductsHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.writeDetail(c, http.StatusOK, entities.ProductID(id))
}

func (h *ProductsHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	components, products := req.Lines()
	created, err := h.catalog.DefineProduct(c.Request.Context(), req.Name, components, products)
	if err != nil {
		fail(c, err)
		return
	}
	h.writeDetail(c, http.StatusCreated, created.ID)
}

func (h *ProductsHandler) Rename(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.RenameProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	product, err := h.catalog.RenameProduct(c.Request.Context(), entities.ProductID(id), req.Name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProductsHandler) UpdateBOM(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateBOMRequest
	if !bindAndValidate(c, &req) {
		return
	}
	components, products := req.Lines()
	if _, err := h.catalog.UpdateProductBOM(c.Request.Context(), entities.ProductID(id), components, products); err != nil {
		fail(c, err)
		return
	}
	h.writeDetail(c, http.StatusOK, entities.ProductID(id))
}

func (h *ProductsHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.RemoveProduct(c.Request.Context(), entities.ProductID(id)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductsHandler) Capacity(c *gin.Context) {
	rows, err := h.capacity.Report(c.Request.Context(), h.workers)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *ProductsHandler) writeDetail(c *gin.Context, status int, id entities.ProductID) {
	detail, err := h.catalog.ProductDetail(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(status, detail)
}
