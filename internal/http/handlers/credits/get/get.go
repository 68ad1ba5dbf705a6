// Package get реализует HTTP-обработчик чтения кредитного счета.
//
// Handler извлекает UID пользователя из контекста и возвращает текущее
// состояние счета. Счет создается при первом обращении, наступивший
// месячный сброс применяется перед ответом.
package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/instagrowth/credit-service/internal/http/middlewarectx"
	"github.com/instagrowth/credit-service/internal/http/response"
	"github.com/instagrowth/credit-service/internal/lib/sl"
	"github.com/instagrowth/credit-service/internal/models"
)

// Handler управляет HTTP-запросами чтения счета.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики кредитного счета.
type Service interface {
	MaybeReset(ctx context.Context, userUID string) (*models.CreditAccount, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Текущий баланс кредитов
// @Description Возвращает кредитный счет пользователя: квоту, списанное, остаток и дату пополнения.
// @Tags Credits
// @Produce  json
// @Success 200 {object} response.Response{data=models.CreditAccount} "Состояние счета"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /credits [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.credits.get"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	acc, err := h.service.MaybeReset(r.Context(), userUID)
	if err != nil {
		log.Error("failed to get credit account", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not get credit account"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(acc))
}
