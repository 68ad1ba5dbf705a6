// Package checklow реализует административный HTTP-обработчик обхода
// счетов с низким остатком и рассылки уведомлений по каждому из них.
package checklow

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/instagrowth/credit-service/internal/http/response"
	"github.com/instagrowth/credit-service/internal/lib/sl"
)

// Handler управляет HTTP-запросами обхода счетов с низким остатком.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс обхода счетов с низким остатком.
type Service interface {
	SweepLowCredits(ctx context.Context) (int, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Разослать уведомления о низком остатке
// @Description Обходит все счета с остатком ниже 20%% квоты и отправляет уведомления. Требует роль admin.
// @Tags Admin
// @Produce  json
// @Success 200 {object} response.Response "Число отправленных уведомлений"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /admin/credits/check-low [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.checklow"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	sent, err := h.service.SweepLowCredits(r.Context())
	if err != nil {
		log.Error("failed to sweep low credit accounts", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not check low credit accounts"))
		return
	}

	log.Info("low credits notifications sent", slog.Int("sent", sent))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"sent": sent,
	}))
}
