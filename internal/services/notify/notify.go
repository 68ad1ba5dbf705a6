// Package notify публикует события о низком остатке кредитов
// в exchange уведомлений RabbitMQ.
package notify

import (
	"context"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/instagrowth/credit-service/internal/lib/rabbitmq"
	"github.com/instagrowth/credit-service/internal/models"
)

// LowCreditsRoutingKey ключ маршрутизации событий низкого остатка.
const LowCreditsRoutingKey = "credits.low"

// Publisher отправляет события в очередь уведомлений.
type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher создает новый Publisher поверх открытого канала.
func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// NotifyLowCredits публикует событие низкого остатка. Сообщение помечено
// persistent, доставку до почтового ящика выполняет отдельный воркер.
func (p *Publisher) NotifyLowCredits(ctx context.Context, event models.LowCreditsEvent) error {
	const op = "notify.NotifyLowCredits"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if err := rabbitmq.PublishMessage(p.ch, rabbitmq.NotificationsExchange, LowCreditsRoutingKey, event); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
