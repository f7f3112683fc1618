// Package notifier delivers buyer and operator messages. The log notifier
// writes them to the structured log; a chat transport can replace it without
// touching the pipeline.
package notifier

import (
	"context"

	"go.uber.org/zap"
)

type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (n *LogNotifier) NotifyBuyer(_ context.Context, chatID string, text string) error {
	n.logger.Info("buyer message",
		zap.String("chatID", chatID),
		zap.String("text", text))
	return nil
}

func (n *LogNotifier) NotifyOperator(_ context.Context, text string) error {
	n.logger.Warn("operator message", zap.String("text", text))
	return nil
}
