// Package grant реализует административный HTTP-обработчик ручного
// начисления бонусных кредитов пользователю.
package grant

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/instagrowth/credit-service/internal/http/response"
	"github.com/instagrowth/credit-service/internal/lib/sl"
	"github.com/instagrowth/credit-service/internal/models"
)

// Handler управляет HTTP-запросами ручного начисления.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики начисления.
type Service interface {
	Credit(ctx context.Context, userUID string, amount int, reason string) (*models.CreditAccount, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Начислить бонусные кредиты
// @Description Начисляет пользователю бонусные кредиты поверх месячной квоты. Требует роль admin.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body models.GrantRequest true "Получатель, сумма и причина"
// @Success 200 {object} response.Response{data=models.CreditAccount} "Обновленный счет"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Security BearerAuth
// @Router /admin/credits/grant [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.grant"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	acc, err := h.service.Credit(r.Context(), req.UserUID, req.Amount, req.Reason)
	if err != nil {
		log.Error("failed to grant credits", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not grant credits"))
		return
	}

	log.Info("credits granted",
		slog.String("user_uid", req.UserUID),
		slog.Int("amount", req.Amount))
	render.JSON(w, r, response.StatusOKWithData(acc))
}
