// Package service publishes activity events to RabbitMQ.  Publishing is
// best effort: errors are logged and returned so callers can ignore them
// without interrupting the request that triggered the event.
package service

import (
    "context"
    "encoding/json"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/pomodoro-flow/internal/queue"
)

// Publisher delivers activity events.
type Publisher interface {
    Publish(ctx context.Context, ev queue.ActivityEvent) error
}

// NopPublisher drops every event.  It is used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.ActivityEvent) error { return nil }

// AMQPPublisher publishes each event on its own short-lived connection so a
// broker outage never leaves the API holding a broken channel.
type AMQPPublisher struct {
    URL         string
    DialTimeout time.Duration
}

func NewAMQPPublisher(url string) *AMQPPublisher {
    return &AMQPPublisher{URL: url, DialTimeout: 3 * time.Second}
}

// Publish sends ev to the durable activity queue as a persistent message.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.ActivityEvent) error {
    conn, err := amqp.DialConfig(p.URL, amqp.Config{
        Dial: amqp.DefaultDial(p.DialTimeout),
    })
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        queue.ActivityQueueName, // name
        true,                    // durable
        false,                   // autoDelete
        false,                   // exclusive
        false,                   // noWait
        nil,                     // args
    ); err != nil {
        log.Printf("rabbitmq: queue declare failed: %v", err)
        return err
    }

    body, err := json.Marshal(ev)
    if err != nil {
        log.Printf("rabbitmq: marshal event failed: %v", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        MessageId:    ev.ID,
        Type:         ev.Type,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",                      // default exchange
        queue.ActivityQueueName, // routing key = queue name
        false,                   // mandatory
        false,                   // immediate
        pub,
    ); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
        return err
    }
    return nil
}

// PublishAsync publishes ev in the background with its own timeout so the
// caller's response is never delayed by the broker.
func PublishAsync(p Publisher, ev queue.ActivityEvent) {
    if p == nil {
        return
    }
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        _ = p.Publish(ctx, ev)
    }()
}
