package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dicegame/dice-api/internal/api/metrics"
	"github.com/dicegame/dice-api/internal/core/ports"
)

// PlayerHandler serves player profiles and account administration.
type PlayerHandler struct {
	players ports.PlayerService
	games   ports.GameService
}

func NewPlayerHandler(players ports.PlayerService, games ports.GameService) *PlayerHandler {
	return &PlayerHandler{players: players, games: games}
}

// List handles GET /players.
//
// @Summary      List players
// @Tags         players
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   playerResponse
// @Failure      401  {object}  errorResponse
// @Router       /players [get]
func (h *PlayerHandler) List(c echo.Context) error {
	users, err := h.players.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPlayerResponses(users))
}

// Me handles GET /players/me.
//
// @Summary      Current player
// @Tags         players
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  playerResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /players/me [get]
func (h *PlayerHandler) Me(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	user, err := h.players.Get(c.Request().Context(), p.Subject)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPlayerResponse(user))
}

// Rename handles PUT /players/:id.
//
// @Summary      Change a player's display name
// @Description  Whitespace and digits are removed; an empty result becomes "Anonymous".
// @Tags         players
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Player id"
// @Param        body  body      renamePlayerRequest  true  "New display name"
// @Success      200   {object}  playerResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /players/{id} [put]
func (h *PlayerHandler) Rename(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req renamePlayerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.players.Rename(c.Request().Context(), p, c.Param("id"), req.DisplayName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPlayerResponse(user))
}

// DeleteGames handles DELETE /players/:id/resources.
//
// @Summary      Delete all of a player's games
// @Tags         players
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Player id"
// @Success      200  {object}  purgeResponse
// @Failure      403  {object}  errorResponse
// @Router       /players/{id}/resources [delete]
func (h *PlayerHandler) DeleteGames(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	n, err := h.games.DeleteAllByOwner(c.Request().Context(), c.Param("id"), p)
	metrics.GameOperationsTotal.WithLabelValues("purge", outcome(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, purgeResponse{Deleted: n})
}

// Disable handles POST /players/:id/disable.
//
// @Summary      Disable a player account
// @Tags         players
// @Security     BearerAuth
// @Param        id  path  string  true  "Player id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /players/{id}/disable [post]
func (h *PlayerHandler) Disable(c echo.Context) error {
	return h.setDisabled(c, true)
}

// Enable handles POST /players/:id/enable.
//
// @Summary      Re-enable a player account
// @Tags         players
// @Security     BearerAuth
// @Param        id  path  string  true  "Player id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /players/{id}/enable [post]
func (h *PlayerHandler) Enable(c echo.Context) error {
	return h.setDisabled(c, false)
}

func (h *PlayerHandler) setDisabled(c echo.Context, disabled bool) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.players.SetDisabled(c.Request().Context(), p, c.Param("id"), disabled); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
