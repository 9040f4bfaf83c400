package eventbus

import (
	"context"

	"github.com/annel0/airtrap-server/internal/logging"
)

// StartLoggingListener дублирует весь поток игровых событий в лог.
// Уровень Debug: в обычном режиме файл получает полную хронику матчей,
// консоль остаётся тихой.
func StartLoggingListener(bus EventBus) error {
	_, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		logging.Debug("🪵 %s src=%s id=%s %s", ev.EventType, ev.Source, ev.ID, ev.Payload)
	})
	if err != nil {
		return err
	}
	logging.Info("🪵 Хроника событий включена")
	return nil
}
