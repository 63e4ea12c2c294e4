package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/todoapp/todo-api/internal/api/metrics"
	"github.com/todoapp/todo-api/internal/core/domain"
	"github.com/todoapp/todo-api/internal/core/ports"
)

const (
	headerIdempotencyKey   = "Idempotency-Key"
	headerIdempotentReplay = "Idempotent-Replay"
)

// TodoHandler serves the owner-scoped todo routes. It must be mounted behind
// the Auth middleware.
type TodoHandler struct {
	service ports.TodoService
}

func NewTodoHandler(service ports.TodoService) *TodoHandler {
	return &TodoHandler{service: service}
}

// List handles GET /todos.
//
// @Summary      List the caller's todos
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   todoResponse
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /todos [get]
func (h *TodoHandler) List(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	todos, err := h.service.List(c.Request().Context(), identity.UserID)
	metrics.TodoOperationsTotal.WithLabelValues("list", resultLabel(err)).Inc()
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toTodoResponses(todos))
}

// Get handles GET /todos/:id.
//
// @Summary      Get one of the caller's todos
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Todo ID"
// @Success      200  {object}  todoResponse
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /todos/{id} [get]
func (h *TodoHandler) Get(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	todo, err := h.service.Get(c.Request().Context(), identity.UserID, id)
	metrics.TodoOperationsTotal.WithLabelValues("get", resultLabel(err)).Inc()
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toTodoResponse(todo))
}

// Create handles POST /todos.
//
// @Summary      Create a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Replays the original todo when repeated"
// @Param        body             body      createTodoRequest  true   "Todo details"
// @Success      201              {object}  todoResponse
// @Success      200              {object}  todoResponse
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Failure      500              {object}  errorResponse
// @Router       /todos [post]
func (h *TodoHandler) Create(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req createTodoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.TodoOperationsTotal.WithLabelValues("create", "invalid").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.Create(c.Request().Context(), ports.CreateTodoInput{
		OwnerID:        identity.UserID,
		Title:          req.Title,
		Description:    req.Description,
		IdempotencyKey: c.Request().Header.Get(headerIdempotencyKey),
	})
	metrics.TodoOperationsTotal.WithLabelValues("create", resultLabel(err)).Inc()
	if err != nil {
		return toHTTPError(err)
	}

	if result.Replayed {
		metrics.IdempotentReplaysTotal.Inc()
		c.Response().Header().Set(headerIdempotentReplay, "true")
		return c.JSON(http.StatusOK, toTodoResponse(result.Todo))
	}
	return c.JSON(http.StatusCreated, toTodoResponse(result.Todo))
}

// Update handles PUT /todos/:id. Absent fields are left unchanged.
//
// @Summary      Update one of the caller's todos
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "Todo ID"
// @Param        body  body      updateTodoRequest  true  "Fields to change"
// @Success      200   {object}  todoResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /todos/{id} [put]
func (h *TodoHandler) Update(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req updateTodoRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	todo, err := h.service.Update(c.Request().Context(), ports.UpdateTodoInput{
		OwnerID: identity.UserID,
		ID:      id,
		Patch: domain.TodoPatch{
			Title:       req.Title,
			Description: req.Description,
			IsCompleted: req.IsCompleted,
		},
	})
	metrics.TodoOperationsTotal.WithLabelValues("update", resultLabel(err)).Inc()
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toTodoResponse(todo))
}

// Delete handles DELETE /todos/:id and returns the removed record.
//
// @Summary      Delete one of the caller's todos
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Todo ID"
// @Success      200  {array}   todoResponse
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /todos/{id} [delete]
func (h *TodoHandler) Delete(c echo.Context) error {
	identity, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	removed, err := h.service.Delete(c.Request().Context(), identity.UserID, id)
	metrics.TodoOperationsTotal.WithLabelValues("delete", resultLabel(err)).Inc()
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toTodoResponses(removed))
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id must be a number")
	}
	return id, nil
}
