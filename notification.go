package backsim

import (
	"fmt"

	"github.com/raykavin/backsim/pkg/notification"
)

// initializeNotifications sets up the Telegram and mail notifiers enabled in the config
func initializeNotifications(s *Simulator) error {
	if s.config.Telegram.Enabled {
		telegram, err := notification.NewTelegram(
			s.config.TelegramSettings(),
			notification.WithLogger(s.log),
			notification.WithOrders(s.config.Telegram.Orders),
		)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		s.telegram = telegram
		s.notifiers = append(s.notifiers, telegram)
	}

	if s.config.Mail.Enabled {
		s.notifiers = append(s.notifiers, notification.NewMail(notification.MailParams{
			SMTPServerPort:    s.config.Mail.Port,
			SMTPServerAddress: s.config.Mail.Server,
			To:                s.config.Mail.To,
			From:              s.config.Mail.From,
			Password:          s.config.Mail.Password,
			Logger:            s.log,
		}))
	}

	return nil
}
