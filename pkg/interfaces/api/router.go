// Package api exposes the engine's component, product, order and procurement
// operations over HTTP/JSON.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vsinha/stockmrp/pkg/engine"
	"github.com/vsinha/stockmrp/pkg/interfaces/api/handler"
	"github.com/vsinha/stockmrp/pkg/interfaces/api/middleware"
)

// New wires the handlers onto a configured Gin engine.
// Dependency graph: Handler <- Service <- Repository, all owned by the engine.
func New(e *engine.Engine) *gin.Engine {
	if e.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.ErrorHandler())

	componentsH := handler.NewComponentsHandler(e.Inventory)
	productsH := handler.NewProductsHandler(e.Catalog, e.Capacity, e.Config.CapacityWorkers)
	ordersH := handler.NewOrdersHandler(e.OrderFlow)
	procurementH := handler.NewProcurementHandler(e.Procurement)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Stock Management System API", "health": "/health"})
	})
	r.GET("/health", handler.Health(e))

	components := r.Group("/components")
	{
		components.GET("", componentsH.List)
		components.POST("", componentsH.Create)
		components.GET("/:id", componentsH.Get)
		components.PUT("/:id", componentsH.Update)
		components.DELETE("/:id", componentsH.Delete)
		components.PATCH("/:id/adjust-stock", componentsH.AdjustStock)
	}

	products := r.Group("/products")
	{
		products.GET("", productsH.List)
		products.POST("", productsH.Create)
		products.GET("/capacity/calculate", productsH.Capacity)
		products.GET("/:id", productsH.Get)
		products.PUT("/:id", productsH.Rename)
		products.PUT("/:id/bom", productsH.UpdateBOM)
		products.DELETE("/:id", productsH.Delete)
	}

	orders := r.Group("/orders")
	{
		orders.GET("", ordersH.List)
		orders.POST("", ordersH.Create)
		orders.GET("/:id", ordersH.Get)
		orders.GET("/:id/requirements", ordersH.Requirements)
		orders.POST("/:id/allocate", ordersH.Allocate)
		orders.POST("/:id/complete", ordersH.Complete)
	}

	r.GET("/procurement/needs", procurementH.Needs)

	return r
}
