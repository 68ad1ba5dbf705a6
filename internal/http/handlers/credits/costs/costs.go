// Package costs реализует HTTP-обработчик чтения тарифных таблиц:
// стоимость AI-функций в кредитах и месячные квоты планов.
package costs

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/instagrowth/credit-service/internal/http/response"
)

// Handler управляет HTTP-запросами чтения тарифов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс получения тарифных таблиц.
type Service interface {
	Costs() map[string]any
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Тарифные таблицы
// @Description Возвращает стоимость функций в кредитах и месячные квоты планов.
// @Tags Credits
// @Produce  json
// @Success 200 {object} response.Response "Тарифы"
// @Security BearerAuth
// @Router /credits/costs [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.StatusOKWithData(h.service.Costs()))
}
