// Package service holds the reminder delivery side of the engine: a
// RabbitMQ publisher and a Redis-backed cooldown, both implementing
// scheduling.Notifier.
package service

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/OptimisticPessimist/pscweb3/internal/logging"
    "github.com/OptimisticPessimist/pscweb3/internal/queue"
    "github.com/OptimisticPessimist/pscweb3/internal/scheduling"
)

// ReminderPublisher publishes one persistent ReminderEvent per batch to
// a durable queue.  It dials per call; reminders are rare and
// coordinator-triggered.
type ReminderPublisher struct {
    URL   string
    Queue string
    Now   func() time.Time
}

// NewReminderPublisher returns a publisher for url and queue.  An empty
// queue means queue.ReminderQueue.
func NewReminderPublisher(url, queueName string) *ReminderPublisher {
    if queueName == "" {
        queueName = queue.ReminderQueue
    }
    return &ReminderPublisher{URL: url, Queue: queueName, Now: time.Now}
}

// NotifyUnanswered implements scheduling.Notifier.  Errors are logged
// and returned; nothing is published for an empty batch.
func (p *ReminderPublisher) NotifyUnanswered(ctx context.Context, batch scheduling.ReminderBatch) (int, error) {
    if len(batch.Recipients) == 0 {
        return 0, nil
    }
    log := logging.New("reminder-publisher")

    body, err := json.Marshal(reminderEvent(batch, p.Now()))
    if err != nil {
        log.Error("marshal event failed", "error", err)
        return 0, err
    }

    conn, err := amqp.Dial(p.URL)
    if err != nil {
        log.Error("dial failed", "error", err)
        return 0, err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Error("channel open failed", "error", err)
        return 0, err
    }
    defer func() { _ = ch.Close() }()

    // Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        p.Queue, // name
        true,    // durable
        false,   // autoDelete
        false,   // exclusive
        false,   // noWait
        nil,     // args
    ); err != nil {
        log.Error("queue declare failed", "error", err)
        return 0, err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    p.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx,
        "",      // default exchange
        p.Queue, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        pub,
    ); err != nil {
        log.Error("publish failed", "error", err)
        return 0, err
    }

    log.Info("reminder published", "poll_id", batch.PollID, "recipients", len(batch.Recipients))
    return len(batch.Recipients), nil
}

func reminderEvent(b scheduling.ReminderBatch, now time.Time) queue.ReminderEvent {
    ev := queue.ReminderEvent{
        PollID:        b.PollID,
        PollTitle:     b.PollTitle,
        ProjectID:     b.ProjectID,
        ProjectName:   b.ProjectName,
        NotifyTargets: b.NotifyTargets,
        Recipients:    make([]queue.ReminderRecipient, 0, len(b.Recipients)),
        RequestedAt:   now.UTC().Format(time.RFC3339),
    }
    for _, r := range b.Recipients {
        ev.Recipients = append(ev.Recipients, queue.ReminderRecipient{MemberID: r.MemberID, DisplayName: r.DisplayName, ExternalID: r.ExternalID})
    }
    return ev
}
