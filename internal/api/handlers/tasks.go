package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/crypto-telemetry/internal/edge"
	"github.com/crypto-telemetry/internal/models"
)

// TaskHandler serves the scheduled price task endpoints.
type TaskHandler struct {
	service *edge.Service
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(service *edge.Service) *TaskHandler {
	return &TaskHandler{service: service}
}

// contractPayload is one instrument-set watch inside an add request.
type contractPayload struct {
	Symbols    []string `json:"symbols"`
	Trade      string   `json:"trade"`
	Exchange   string   `json:"exchange"`
	Intervals  int64    `json:"intervals"`
	Duration   string   `json:"duration"`
	Direction  string   `json:"direction"`
	Percentage float64  `json:"percentage"`
}

type addTasksRequest struct {
	TaskID    string            `json:"task_id"`
	UserID    string            `json:"user_id"`
	Contracts []contractPayload `json:"contracts"`
}

type stopTasksRequest struct {
	UserID   string   `json:"user_id"`
	TaskList []string `json:"task_list"`
}

// AddPricingTasks validates and registers each contract, answering with the
// contracts that were rejected.
func (h *TaskHandler) AddPricingTasks(c echo.Context) error {
	var req addTasksRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "malformed JSON body")
	}
	if req.TaskID == "" || req.UserID == "" || len(req.Contracts) == 0 {
		return badRequest(c, "task_id, user_id and contracts are required")
	}

	tasks := make([]models.PriceTask, 0, len(req.Contracts))
	for _, contract := range req.Contracts {
		exchange := models.ParseExchange(contract.Exchange)
		if exchange == models.ExchangeTotal {
			return badRequest(c, "unknown exchange "+contract.Exchange)
		}
		trade := models.ParseTradeType(contract.Trade)
		if trade == models.TradeTypeTotal {
			return badRequest(c, "unknown trade type "+contract.Trade)
		}

		// The index stores symbols uppercase; match its casing here.
		tokens := make([]string, 0, len(contract.Symbols))
		for _, symbol := range contract.Symbols {
			tokens = append(tokens, strings.ToUpper(symbol))
		}

		task := models.PriceTask{
			TaskID:    req.TaskID,
			UserID:    req.UserID,
			Tokens:    tokens,
			TradeType: trade,
			Exchange:  exchange,
			Status:    models.TaskInitiated,
		}
		if contract.Intervals > 0 {
			unit := models.ParseDurationUnit(contract.Duration)
			task.TimeProp = &models.TimeProperty{
				IntervalMs: unit.Millis(contract.Intervals),
				Duration:   unit,
			}
		}
		if contract.Percentage != 0 {
			task.PercentProp = &models.PercentProperty{
				Percent:   contract.Percentage,
				Direction: models.ParsePriceDirection(contract.Direction),
			}
		}
		tasks = append(tasks, task)
	}

	rejected := h.service.SchedulePriceTasks(tasks)
	if len(rejected) > 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status":  "error",
			"message": "some contracts failed validation",
			"failed":  rejected,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "ok",
		"message": "tasks scheduled",
		"failed":  []edge.RejectedTask{},
	})
}

// StopPriceTasks removes every listed task for the user.
func (h *TaskHandler) StopPriceTasks(c echo.Context) error {
	var req stopTasksRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "malformed JSON body")
	}
	if req.UserID == "" || len(req.TaskList) == 0 {
		return badRequest(c, "user_id and task_list are required")
	}

	h.service.StopPriceTasks(req.UserID, req.TaskList)
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "ok",
		"message": "tasks stopped",
	})
}

// ListPriceTasks returns the running tasks for one user.
func (h *TaskHandler) ListPriceTasks(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return badRequest(c, "user_id is required")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status": "ok",
		"tasks":  h.service.Registry().ListForUser(userID),
	})
}

// AllPriceTasks returns every running task.
func (h *TaskHandler) AllPriceTasks(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status": "ok",
		"tasks":  h.service.Registry().ListAll(),
	})
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{
		"status":  "error",
		"message": message,
	})
}
