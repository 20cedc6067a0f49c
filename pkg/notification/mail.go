package notification

import (
	"fmt"
	"net/smtp"

	"github.com/raykavin/backsim/pkg/core"
	"github.com/raykavin/backsim/pkg/logger"
	"github.com/raykavin/backsim/pkg/logger/zerolog"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mail handles email notifications for the application
type Mail struct {
	auth              smtp.Auth
	smtpServerPort    int
	smtpServerAddress string
	to                string
	from              string
	log               logger.Logger
	send              sendMailFunc
}

// MailParams contains all parameters needed to initialize a Mail instance
type MailParams struct {
	SMTPServerPort    int
	SMTPServerAddress string
	To                string
	From              string
	Password          string
	Logger            logger.Logger
}

// NewMail creates a new Mail instance with the provided parameters
func NewMail(params MailParams) Mail {
	log := params.Logger
	if log == nil {
		log = zerolog.Nop()
	}

	return Mail{
		from:              params.From,
		to:                params.To,
		smtpServerPort:    params.SMTPServerPort,
		smtpServerAddress: params.SMTPServerAddress,
		auth: smtp.PlainAuth(
			"",
			params.From,
			params.Password,
			params.SMTPServerAddress,
		),
		log:  log,
		send: smtp.SendMail,
	}
}

// Notify sends an email notification with the given text
func (m Mail) Notify(text string) {
	m.deliver("backsim notification", text)
}

// OnOrder sends an order notification based on its status
func (m Mail) OnOrder(order core.Order) {
	m.deliver(orderTitle(order), orderBody(order))
}

// OnError sends an error notification
func (m Mail) OnError(err error) {
	m.deliver("🛑 ERROR", errorMessage(err))
}

func (m Mail) deliver(subject, body string) {
	serverAddress := fmt.Sprintf("%s:%d", m.smtpServerAddress, m.smtpServerPort)

	message := fmt.Sprintf("To: \"User\" <%s>\r\nFrom: \"backsim\" <%s>\r\nSubject: %s\r\n\r\n%s",
		m.to, m.from, subject, body)

	if err := m.send(serverAddress, m.auth, m.from, []string{m.to}, []byte(message)); err != nil {
		m.log.WithError(err).Error("notification/mail: failed to send email")
	}
}
