package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/frugalprotein-backend/internal/http/response"
	"github.com/yungbote/frugalprotein-backend/internal/pricecalc"
)

type CalculatorHandler struct{}

func NewCalculatorHandler() *CalculatorHandler { return &CalculatorHandler{} }

// POST /api/calculator
func (h *CalculatorHandler) Calculate(c *gin.Context) {
	var in pricecalc.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := pricecalc.Calculate(in)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_input", err)
		return
	}
	response.RespondOK(c, gin.H{
		"unit":          res.Unit,
		"qty":           res.Qty,
		"unit_price":    res.UnitPrice.Round(2),
		"protein_per":   res.ProteinPer,
		"protein_price": res.ProteinPrice.Round(2),
	})
}
