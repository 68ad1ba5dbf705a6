// Package use реализует HTTP-обработчик списания кредитов.
//
// Handler принимает имя функции и необязательную явную стоимость в
// query-параметрах, выполняет списание и возвращает обновленный счет.
// При нехватке остатка возвращается 402 со стоимостью и остатком.
package use

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/instagrowth/credit-service/internal/http/middlewarectx"
	"github.com/instagrowth/credit-service/internal/http/response"
	"github.com/instagrowth/credit-service/internal/lib/sl"
	"github.com/instagrowth/credit-service/internal/models"
	"github.com/instagrowth/credit-service/internal/services/credits"
)

// Handler управляет HTTP-запросами списания кредитов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики списания.
type Service interface {
	Debit(ctx context.Context, userUID, feature string, amount int) (*models.CreditAccount, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Списать кредиты за вызов функции
// @Description Списывает кредиты по тарифу функции или по явной сумме из параметра amount.
// @Tags Credits
// @Produce  json
// @Param feature query string true "Имя AI-функции"
// @Param amount query int false "Явная стоимость, перекрывает тариф"
// @Success 200 {object} response.Response{data=models.CreditAccount} "Обновленный счет"
// @Failure 400 {object} response.ErrorResponse "Некорректные параметры"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 402 {object} response.PaymentRequiredResponse "Недостаточно кредитов"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /credits/use [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.credits.use"

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

	feature := r.URL.Query().Get("feature")
	if feature == "" {
		log.Error("feature parameter missing")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("feature parameter is required"))
		return
	}

	amount := 0
	if raw := r.URL.Query().Get("amount"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			log.Error("invalid amount parameter", slog.String("amount", raw))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("amount must be a positive integer"))
			return
		}
		amount = parsed
	}

	acc, err := h.service.Debit(r.Context(), userUID, feature, amount)
	if err != nil {
		var insufficient *credits.InsufficientCreditsError
		if errors.As(err, &insufficient) {
			log.Info("insufficient credits",
				slog.String("feature", feature),
				slog.Int("required", insufficient.Required),
				slog.Int("remaining", insufficient.Remaining))
			w.WriteHeader(http.StatusPaymentRequired)
			render.JSON(w, r, response.InsufficientCredits(
				insufficient.Feature, insufficient.Required, insufficient.Remaining))
			return
		}
		log.Error("failed to debit credits", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not use credits"))
		return
	}

	log.Info("credits used", slog.String("feature", feature), slog.Int("remaining", acc.RemainingCredits))
	render.JSON(w, r, response.StatusOKWithData(acc))
}
