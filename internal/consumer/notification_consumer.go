package consumer

import (
	"context"
	"encoding/json"

	"github.com/Eursukkul/trainer-booking-service/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Notifier is the contract of the external email/push dispatcher.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// LogNotifier writes each notification to the log instead of delivering it.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, msg models.Notification) error {
	n.logger.Info("Notification",
		zap.String("message_id", msg.MessageID),
		zap.String("user_id", msg.UserID),
		zap.String("type", string(msg.Type)),
		zap.String("title", msg.Title),
		zap.String("message", msg.Message),
		zap.Any("data", msg.Data),
	)
	return nil
}

type NotificationConsumer struct {
	notifier Notifier
	logger   *zap.Logger
}

func NewNotificationConsumer(notifier Notifier, logger *zap.Logger) *NotificationConsumer {
	return &NotificationConsumer{notifier: notifier, logger: logger}
}

// Run handles deliveries until msgs is closed or ctx is cancelled.
func (nc *NotificationConsumer) Run(ctx context.Context, msgs <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				nc.logger.Warn("Notification channel closed, stopping consumer")
				return nil
			}
			nc.handleMessage(ctx, msg)
		}
	}
}

func (nc *NotificationConsumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	var n models.Notification
	if err := json.Unmarshal(msg.Body, &n); err != nil || n.UserID == "" {
		nc.logger.Error("Dropping malformed notification",
			zap.String("message_id", msg.MessageId),
			zap.String("routing_key", msg.RoutingKey),
			zap.Error(err),
		)
		nc.settle(msg.Nack(false, false))
		return
	}

	if err := nc.notifier.Notify(ctx, n); err != nil {
		// Requeue once; a redelivered message that fails again is dropped.
		requeue := !msg.Redelivered
		nc.logger.Warn("Notifier failed",
			zap.String("message_id", n.MessageID),
			zap.String("user_id", n.UserID),
			zap.Bool("requeue", requeue),
			zap.Error(err),
		)
		nc.settle(msg.Nack(false, requeue))
		return
	}

	nc.settle(msg.Ack(false))
}

func (nc *NotificationConsumer) settle(err error) {
	if err != nil {
		nc.logger.Error("Failed to settle delivery", zap.Error(err))
	}
}
