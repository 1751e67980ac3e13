package utils

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
)

// Mailer gửi email HTML. Lỗi gửi không được làm hỏng luồng nghiệp vụ gọi nó.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SMTPMailer struct {
	Host     string
	Port     int
	From     string
	Password string
}

func (m SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	// Headers: hỗ trợ UTF-8 & HTML
	msg := ""
	msg += "MIME-Version: 1.0\r\n"
	msg += "Content-Type: text/html; charset=\"UTF-8\"\r\n"
	msg += fmt.Sprintf("From: %s\r\n", m.From)
	msg += fmt.Sprintf("To: %s\r\n", to)
	msg += fmt.Sprintf("Subject: %s\r\n", subject)
	msg += "\r\n" + body

	addr := net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
	err := smtp.SendMail(
		addr,
		smtp.PlainAuth("", m.From, m.Password, m.Host),
		m.From,
		[]string{to},
		[]byte(msg),
	)
	if err != nil {
		return fmt.Errorf("gửi email thất bại: %w", err)
	}
	return nil
}

// LogMailer chỉ ghi log, dùng khi chưa cấu hình SMTP.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) Send(ctx context.Context, to, subject, body string) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "email not sent, smtp disabled", "to", to, "subject", subject)
	return nil
}
