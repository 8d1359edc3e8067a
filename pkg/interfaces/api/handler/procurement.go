package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vsinha/stockmrp/pkg/application/services/procurement"
)

type ProcurementHandler struct{ aggregator *procurement.Aggregator }

func NewProcurementHandler(aggregator *procurement.Aggregator) *ProcurementHandler {
	return &ProcurementHandler{aggregator: aggregator}
}

func (h *ProcurementHandler) Needs(c *gin.Context) {
	report, err := h.aggregator.Needs(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
