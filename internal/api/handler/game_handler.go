package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dicegame/dice-api/internal/api/metrics"
	"github.com/dicegame/dice-api/internal/core/ports"
)

// GameHandler serves the /resources endpoints backed by dice game documents.
type GameHandler struct {
	service ports.GameService
}

func NewGameHandler(service ports.GameService) *GameHandler {
	return &GameHandler{service: service}
}

// List handles GET /resources.
//
// @Summary      List games
// @Description  Returns the caller's games, newest first. owner_id selects another player's games.
// @Tags         resources
// @Produce      json
// @Security     BearerAuth
// @Param        owner_id  query     string  false  "Owner id (defaults to the caller)"
// @Success      200       {array}   gameResponse
// @Failure      401       {object}  errorResponse
// @Router       /resources [get]
func (h *GameHandler) List(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	ownerID := c.QueryParam("owner_id")
	if ownerID == "" {
		ownerID = p.Subject
	}

	games, err := h.service.ListByOwner(c.Request().Context(), ownerID)
	metrics.GameOperationsTotal.WithLabelValues("list", outcome(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toGameResponses(games))
}

// Create handles POST /resources.
//
// @Summary      Create a game
// @Tags         resources
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      gameRequest  true  "Game payload"
// @Success      201   {object}  gameResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /resources [post]
func (h *GameHandler) Create(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req gameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	game, err := h.service.Create(c.Request().Context(), p, req.Payload)
	metrics.GameOperationsTotal.WithLabelValues("create", outcome(err)).Inc()
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, "/resources/"+game.ID)
	return c.JSON(http.StatusCreated, toGameResponse(game))
}

// Get handles GET /resources/:id.
//
// @Summary      Get a game
// @Tags         resources
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Game id"
// @Success      200  {object}  gameResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /resources/{id} [get]
func (h *GameHandler) Get(c echo.Context) error {
	game, err := h.service.Get(c.Request().Context(), c.Param("id"))
	metrics.GameOperationsTotal.WithLabelValues("get", outcome(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toGameResponse(game))
}

// Update handles PUT /resources/:id. The payload is merged into the stored one.
//
// @Summary      Update a game
// @Tags         resources
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Game id"
// @Param        body  body      gameRequest  true  "Fields to merge into the payload"
// @Success      200   {object}  gameResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /resources/{id} [put]
func (h *GameHandler) Update(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req gameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	game, err := h.service.Update(c.Request().Context(), c.Param("id"), p, req.Payload)
	metrics.GameOperationsTotal.WithLabelValues("update", outcome(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toGameResponse(game))
}

// Delete handles DELETE /resources/:id.
//
// @Summary      Delete a game
// @Tags         resources
// @Security     BearerAuth
// @Param        id  path  string  true  "Game id"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /resources/{id} [delete]
func (h *GameHandler) Delete(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	err = h.service.Delete(c.Request().Context(), c.Param("id"), p)
	metrics.GameOperationsTotal.WithLabelValues("delete", outcome(err)).Inc()
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
