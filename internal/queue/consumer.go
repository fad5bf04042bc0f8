package queue

// The activity consumer listens to the pomodoro.activity queue and appends
// one line per event to <dir>/activity.log.

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// ActivityLogFile is the file name the consumer appends to.
const ActivityLogFile = "activity.log"

// StartActivityConsumer connects to RabbitMQ, declares the activity queue
// (durable) and consumes it until ctx is cancelled.  Broker failures are
// retried with exponential backoff; a message that cannot be handled is
// rejected without requeue so it cannot block the queue.
func StartActivityConsumer(ctx context.Context, url, dir string) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Printf("activity-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            if !sleepCtx(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn, dir)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Printf("activity-consumer: consume loop ended: %v; reconnecting", err)
        if !sleepCtx(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, dir string) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Printf("activity-consumer: set QoS failed: %v", err)
    }

    if _, err := ch.QueueDeclare(ActivityQueueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(ActivityQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := HandleMessage(dir, d.Body); err != nil {
                log.Printf("activity-consumer: handle message failed: %v", err)
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// HandleMessage decodes one event and appends its log line under dir.
func HandleMessage(dir string, body []byte) error {
    var ev ActivityEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.UserID == 0 {
        return fmt.Errorf("incomplete event %q", ev.ID)
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", dir, err)
    }
    f, err := os.OpenFile(filepath.Join(dir, ActivityLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders an event as one human-friendly log line.
func FormatLine(ev ActivityEvent) string {
    switch ev.Type {
    case EventSessionCompleted:
        return fmt.Sprintf("[%s] Session completed | user_id=%d | session_id=%d | type=%s | duration=%d min | event=%s\n",
            ev.OccurredAt, ev.UserID, ev.SessionID, ev.SessionType, ev.Duration, ev.ID)
    case EventTimetableActivated:
        return fmt.Sprintf("[%s] Timetable activated | user_id=%d | timetable_id=%d | title=%q | event=%s\n",
            ev.OccurredAt, ev.UserID, ev.TimetableID, ev.TimetableTitle, ev.ID)
    default:
        return fmt.Sprintf("[%s] %s | user_id=%d | event=%s\n", ev.OccurredAt, ev.Type, ev.UserID, ev.ID)
    }
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
