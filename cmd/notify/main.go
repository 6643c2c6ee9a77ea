package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"

	"github.com/selatan-haulage/driver-leave/backend/internal/config"
	"github.com/selatan-haulage/driver-leave/backend/internal/domain"
	"github.com/selatan-haulage/driver-leave/backend/internal/gateway"
	"github.com/selatan-haulage/driver-leave/backend/internal/handler"
	"github.com/selatan-haulage/driver-leave/backend/internal/obs"
)

func main() {
	/**********************************************
	 * load configuration
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("unable to load configuration", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * create logger
	 **********************************************/
	logger := obs.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	/**********************************************
	 * create the WhatsApp gateway sender
	 **********************************************/
	sender := gateway.NewWhatsAppSender(cfg.WhatsApp.APIURL, cfg.WhatsApp.Token, time.Duration(cfg.WhatsApp.SendTimeout)*time.Second, logger)

	/**********************************************
	 * create the mail client for override alerts
	 **********************************************/
	mailClient, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("unable to create mail client", slog.String("error", err.Error()))
		return
	}
	defer mailClient.Close()

	dialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := mailClient.DialWithContext(dialCtx); err != nil {
		logger.Error("unable to reach mail server", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * connect to rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("unable to connect to rabbitmq", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("unable to open a channel", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		handler.NotifyQueue, // queue name
		true,                // durable
		false,               // do not auto-delete while no consumer is attached
		false,               // not exclusive
		false,               // wait for the broker to confirm the declare
		nil,
	)
	if err != nil {
		logger.Error("unable to declare queue", slog.String("error", err.Error()))
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	msgs, err := ch.Consume(
		q.Name,
		"",    // consumer tag assigned by the broker
		false, // manual acks
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("unable to consume messages", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgs:
				logger.Info("message received", slog.String("message", string(msg.Body)))

				outbound := domain.OutboundMessage{}
				if err := json.Unmarshal(msg.Body, &outbound); err != nil {
					logger.Error("unable to decode outbound message", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				switch outbound.Kind {
				case domain.OutboundText, domain.OutboundButtons, domain.OutboundImage, domain.OutboundEmail:
				default:
					logger.Error("unsupported message kind", slog.String("kind", string(outbound.Kind)))
					_ = msg.Nack(false, false)
					continue
				}

				if err := deliver(ctx, outbound, sender, mailClient, cfg); err != nil {
					logger.Error("delivery failed", slog.String("kind", string(outbound.Kind)), slog.String("error", err.Error()))
					_ = msg.Nack(false, true) // requeue, delivery errors are usually transient
					continue
				}

				_ = msg.Ack(false)
			}
		}
	}()

	logger.Info("waiting for messages... (CTRL+C to quit)")
	<-sigChan

	slog.Info("shutting down notify worker...")
	cancel()
	wg.Wait()
	slog.Info("notify worker stopped")
}

func deliver(ctx context.Context, outbound domain.OutboundMessage, sender *gateway.WhatsAppSender, mailClient *mail.Client, cfg *config.Config) error {
	switch outbound.Kind {
	case domain.OutboundText:
		return sender.SendText(ctx, outbound.ChatID, outbound.Body, outbound.Mentions)
	case domain.OutboundButtons:
		return sender.SendButtons(ctx, outbound.ChatID, outbound)
	case domain.OutboundImage:
		return sender.SendFileBase64(ctx, outbound.ChatID, outbound)
	case domain.OutboundEmail:
		m := mail.NewMsg()
		if err := m.From(cfg.Email.SMTP.Username); err != nil {
			return err
		}
		if err := m.To(outbound.To); err != nil {
			return err
		}
		m.Subject(outbound.Subject)
		m.SetBodyString(mail.TypeTextPlain, outbound.Body)
		return mailClient.DialAndSend(m)
	default:
		return fmt.Errorf("unsupported message kind %q", outbound.Kind)
	}
}
