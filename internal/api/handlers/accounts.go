package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/crypto-telemetry/internal/edge"
	"github.com/crypto-telemetry/internal/models"
)

// AccountHandler serves the account-monitor endpoints.
type AccountHandler struct {
	service *edge.Service
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(service *edge.Service) *AccountHandler {
	return &AccountHandler{service: service}
}

type monitorRequest struct {
	TaskID     string `json:"task_id"`
	UserID     string `json:"user_id"`
	Exchange   string `json:"exchange"`
	TradeType  string `json:"trade_type"`
	APIKey     string `json:"api_key"`
	SecretKey  string `json:"secret_key"`
	Passphrase string `json:"pass_phrase"`
}

// AddAccountMonitoring submits an account-monitor add task and waits for the
// scheduler's first answer.
func (h *AccountHandler) AddAccountMonitoring(c echo.Context) error {
	var req monitorRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "malformed JSON body")
	}
	if req.TaskID == "" || req.UserID == "" || req.APIKey == "" || req.SecretKey == "" {
		return badRequest(c, "task_id, user_id, api_key and secret_key are required")
	}

	exchange := models.ParseExchange(req.Exchange)
	if exchange == models.ExchangeTotal {
		return badRequest(c, "unknown exchange "+req.Exchange)
	}
	trade := models.ParseTradeType(req.TradeType)
	if exchange == models.ExchangeKucoin && trade == models.TradeTypeTotal {
		return badRequest(c, "trade_type is required for kucoin")
	}
	if (exchange == models.ExchangeKucoin || exchange == models.ExchangeOkx) && req.Passphrase == "" {
		return badRequest(c, "pass_phrase is required for "+exchange.String())
	}

	task := models.AccountTask{
		TaskID: req.TaskID,
		UserID: req.UserID,
		Credential: models.AccountCredential{
			UserID:     req.UserID,
			APIKey:     req.APIKey,
			SecretKey:  req.SecretKey,
			Passphrase: req.Passphrase,
		},
		Exchange:  exchange,
		TradeType: trade,
		Operation: models.OperationAdd,
	}

	result, err := h.service.MonitorAccount(task)
	if err != nil {
		if errors.Is(err, models.ErrUnknownExchange) {
			return badRequest(c, "unknown exchange "+req.Exchange)
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"status":  "error",
			"message": "account monitor could not be scheduled",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":  "ok",
		"task_id": result.TaskID,
		"state":   result.State,
	})
}
