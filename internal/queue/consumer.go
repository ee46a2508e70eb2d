// Package queue contains the background consumer that listens to the
// poll.reminder queue and writes one line per reminded member to
// <log dir>/reminders.log.
package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log/slog"
    "os"
    "path/filepath"
    "strings"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/OptimisticPessimist/pscweb3/internal/logging"
)

// ConsumerConfig names the broker, queue and output directory.
type ConsumerConfig struct {
    URL    string
    Queue  string
    LogDir string
}

// StartReminderConsumer connects to RabbitMQ, declares the queue
// (durable) and consumes reminder events until ctx is cancelled.  Dial
// failures back off exponentially up to 30s; a closed delivery channel
// triggers a reconnect.  Messages that cannot be handled are rejected
// without requeue so a bad payload cannot spin the loop.
func StartReminderConsumer(ctx context.Context, cfg ConsumerConfig) error {
    if cfg.Queue == "" {
        cfg.Queue = ReminderQueue
    }
    if cfg.LogDir == "" {
        cfg.LogDir = "logs"
    }
    log := logging.New("reminder-consumer")

    backoff := time.Second
    for {
        if err := ctx.Err(); err != nil {
            return err
        }
        conn, err := amqp.Dial(cfg.URL)
        if err != nil {
            log.Warn("failed to dial broker", "error", err, "retry_in", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn, cfg, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn("consume loop ended, reconnecting", "error", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, cfg ConsumerConfig, log *slog.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Warn("set QoS failed", "error", err)
    }

    if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(cfg.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }
    log.Info("consuming", "queue", cfg.Queue)

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := handleMessage(cfg.LogDir, d.Body); err != nil {
                log.Warn("handle message failed", "error", err)
                _ = d.Nack(false, false) // reject, do not requeue
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func handleMessage(logDir string, body []byte) error {
    var ev ReminderEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.PollID == "" {
        return errors.New("event without poll_id")
    }
    if err := os.MkdirAll(logDir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", logDir, err)
    }
    fpath := filepath.Join(logDir, "reminders.log")
    f, err := os.OpenFile(fpath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    targets := "[]"
    if len(ev.NotifyTargets) > 0 {
        targets = fmt.Sprintf("[%s]", strings.Join(ev.NotifyTargets, ","))
    }

    var b strings.Builder
    for _, r := range ev.Recipients {
        fmt.Fprintf(&b, "[%s] Reminder | poll_id=%s | poll=%q | project=%q | member_id=%s | member=%q | external_id=%s | targets=%s\n",
            ev.RequestedAt, ev.PollID, ev.PollTitle, ev.ProjectName, r.MemberID, r.DisplayName, r.ExternalID, targets)
    }
    if _, err := f.WriteString(b.String()); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
