package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/crypto-telemetry/internal/edge"
	"github.com/crypto-telemetry/internal/models"
)

// PriceHandler serves the read-only price index endpoints.
type PriceHandler struct {
	service *edge.Service
}

// NewPriceHandler creates a new price handler
func NewPriceHandler(service *edge.Service) *PriceHandler {
	return &PriceHandler{service: service}
}

// TradingPairs returns the current instrument snapshot for one exchange.
func (h *PriceHandler) TradingPairs(c echo.Context) error {
	exchange := models.ParseExchange(c.Param("exchange"))
	if exchange == models.ExchangeTotal {
		return badRequest(c, "unknown exchange "+c.Param("exchange"))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":      "ok",
		"instruments": h.service.TradingPairs(exchange),
	})
}

// LatestPrice returns a single instrument lookup.
func (h *PriceHandler) LatestPrice(c echo.Context) error {
	exchange := models.ParseExchange(c.Param("exchange"))
	if exchange == models.ExchangeTotal {
		return badRequest(c, "unknown exchange "+c.Param("exchange"))
	}
	trade := models.ParseTradeType(c.Param("trade"))
	if trade == models.TradeTypeTotal {
		return badRequest(c, "unknown trade type "+c.Param("trade"))
	}
	symbol := strings.ToUpper(c.Param("symbol"))

	inst, ok := h.service.LatestPrice(exchange, trade, symbol)
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{
			"status":  "error",
			"message": "instrument not found",
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":     "ok",
		"instrument": inst,
	})
}
