// Package generate реализует HTTP-обработчик AI-генерации контента.
//
// Порядок обработки: единая проверка допуска (частота, потолок операций,
// остаток кредитов), затем генерация, затем списание. Кредиты списываются
// только за успешную генерацию; таймаут модели дает 503 без списания.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/instagrowth/credit-service/internal/aigen"
	"github.com/instagrowth/credit-service/internal/http/middlewarectx"
	"github.com/instagrowth/credit-service/internal/http/response"
	"github.com/instagrowth/credit-service/internal/lib/sl"
	"github.com/instagrowth/credit-service/internal/models"
	"github.com/instagrowth/credit-service/internal/services/authorize"
	"github.com/instagrowth/credit-service/internal/services/credits"
)

// Handler управляет HTTP-запросами AI-генерации.
type Handler struct {
	log       *slog.Logger
	auth      AuthorizeService
	generator aigen.Generator
	ledger    LedgerService
	validate  *validator.Validate
}

// AuthorizeService описывает единую проверку допуска AI-запроса.
type AuthorizeService interface {
	Authorize(ctx context.Context, userUID, feature string) (authorize.Decision, error)
	IncrementUsage(ctx context.Context, userUID string)
}

// LedgerService описывает списание кредитов за выполненную генерацию.
type LedgerService interface {
	Debit(ctx context.Context, userUID, feature string, amount int) (*models.CreditAccount, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, auth AuthorizeService, generator aigen.Generator, ledger LedgerService) *Handler {
	return &Handler{
		log:       log,
		auth:      auth,
		generator: generator,
		ledger:    ledger,
		validate:  validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Сгенерировать контент
// @Description Выполняет AI-генерацию для указанной функции и списывает ее стоимость в кредитах.
// @Tags AI
// @Accept  json
// @Produce  json
// @Param request body models.GenerateRequest true "Функция и запрос пользователя"
// @Success 200 {object} response.Response "Результат генерации и остаток кредитов"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 402 {object} response.PaymentRequiredResponse "Недостаточно кредитов"
// @Failure 403 {object} response.ErrorResponse "Исчерпан месячный потолок операций"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 503 {object} response.ErrorResponse "Генерация не уложилась в таймаут"
// @Security BearerAuth
// @Router /ai/generate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.ai.generate"

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

	var req models.GenerateRequest
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

	decision, err := h.auth.Authorize(r.Context(), userUID, req.Feature)
	if err != nil {
		log.Error("authorization check failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}
	switch decision.Status {
	case authorize.RateLimited:
		log.Info("request rate limited")
		w.WriteHeader(http.StatusTooManyRequests)
		render.JSON(w, r, response.Error("too many requests, slow down"))
		return
	case authorize.QuotaExceeded:
		log.Info("monthly ai usage limit reached")
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("monthly AI usage limit reached, upgrade your plan"))
		return
	case authorize.InsufficientCredits:
		log.Info("insufficient credits",
			slog.Int("required", decision.Required),
			slog.Int("remaining", decision.Remaining))
		w.WriteHeader(http.StatusPaymentRequired)
		render.JSON(w, r, response.InsufficientCredits(req.Feature, decision.Required, decision.Remaining))
		return
	}

	content, err := h.generator.Generate(r.Context(), req.Feature, req.Prompt)
	if err != nil {
		if errors.Is(err, aigen.ErrGenerationTimeout) {
			log.Error("generation timed out", slog.String("feature", req.Feature))
			w.WriteHeader(http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("generation timed out, credits were not charged"))
			return
		}
		log.Error("generation failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("generation failed, credits were not charged"))
		return
	}

	acc, err := h.ledger.Debit(r.Context(), userUID, req.Feature, 0)
	if err != nil {
		var insufficient *credits.InsufficientCreditsError
		if errors.As(err, &insufficient) {
			// остаток списало конкурентное списание после проверки допуска
			w.WriteHeader(http.StatusPaymentRequired)
			render.JSON(w, r, response.InsufficientCredits(
				insufficient.Feature, insufficient.Required, insufficient.Remaining))
			return
		}
		log.Error("failed to debit credits after generation", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal server error"))
		return
	}

	h.auth.IncrementUsage(r.Context(), userUID)

	log.Info("content generated",
		slog.String("feature", req.Feature),
		slog.Int("remaining", acc.RemainingCredits))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"content":           content,
		"feature":           req.Feature,
		"remaining_credits": acc.RemainingCredits,
	}))
}
