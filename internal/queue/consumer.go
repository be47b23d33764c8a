// Consumer side of the outbound email queue: delivers each queued
// message through the mail relay. The consumer runs a reconnect loop
// for the life of the process and rejects messages it cannot deliver
// without requeueing, so a broken relay never produces a tight loop.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/invitame/wedding-invitation-service/internal/mailer"
)

// StartEmailConsumer connects to RabbitMQ, declares the email.outbound
// queue (durable), and consumes messages until ctx is cancelled. Each
// message becomes one call to the mail relay. Connection failures back
// off exponentially up to 30 seconds.
func StartEmailConsumer(ctx context.Context, mail *mailer.Client, log zerolog.Logger) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := amqp.Dial(brokerURL())
		if err != nil {
			log.Warn().Err(err).Dur("retry_in", backoff).Msg("email-consumer: failed to dial broker")
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		// closing the connection on cancel unblocks the consume loop
		stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
		err = consumeLoop(conn, mail, log)
		stop()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Warn().Err(err).Msg("email-consumer: consume loop ended; reconnecting")
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, mail *mailer.Client, log zerolog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		log.Warn().Err(err).Msg("email-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(emailQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(emailQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := deliver(d.Body, mail); err != nil {
			log.Error().Err(err).Msg("email-consumer: delivery failed")
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func deliver(body []byte, mail *mailer.Client) error {
	var ev EmailQueuedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := mail.Send(ctx, mailer.Message{To: ev.To, Subject: ev.Subject, Body: ev.Body}); err != nil {
		return fmt.Errorf("send %s email to guest %d: %w", ev.Kind, ev.GuestID, err)
	}
	return nil
}
