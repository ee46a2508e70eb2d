package service

import (
    "context"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/OptimisticPessimist/pscweb3/internal/logging"
    "github.com/OptimisticPessimist/pscweb3/internal/scheduling"
)

// cooldownStore is the part of the Redis client the cooldown uses.
type cooldownStore interface {
    SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
    Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// CooldownNotifier drops recipients already reminded for the same poll
// within TTL and hands the rest to Next.  A member is claimed with
// SET NX EX before sending; claims are released again if Next fails.
type CooldownNotifier struct {
    Next   scheduling.Notifier
    TTL    time.Duration
    Prefix string

    store cooldownStore
}

// NewCooldownNotifier wraps next.  With a nil client or a non-positive
// ttl every recipient passes through.
func NewCooldownNotifier(next scheduling.Notifier, rdb *redis.Client, ttl time.Duration) *CooldownNotifier {
    if next == nil {
        panic("nil Notifier passed to NewCooldownNotifier")
    }
    n := &CooldownNotifier{Next: next, TTL: ttl, Prefix: "remind"}
    if rdb != nil {
        n.store = rdb
    }
    return n
}

func (n *CooldownNotifier) key(pollID, memberID string) string {
    return n.Prefix + ":" + pollID + ":" + memberID
}

// NotifyUnanswered implements scheduling.Notifier.  Redis errors fail
// open: the recipient is sent.
func (n *CooldownNotifier) NotifyUnanswered(ctx context.Context, batch scheduling.ReminderBatch) (int, error) {
    if n.store == nil || n.TTL <= 0 {
        return n.Next.NotifyUnanswered(ctx, batch)
    }
    log := logging.New("reminder-cooldown")

    kept := make([]scheduling.Recipient, 0, len(batch.Recipients))
    var claimed []string
    for _, r := range batch.Recipients {
        key := n.key(batch.PollID, r.MemberID)
        ok, err := n.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), n.TTL).Result()
        if err != nil {
            log.Warn("redis error, sending anyway", "key", key, "error", err)
            kept = append(kept, r)
            continue
        }
        if !ok {
            log.Debug("skipped, reminded recently", "poll_id", batch.PollID, "member_id", r.MemberID)
            continue
        }
        claimed = append(claimed, key)
        kept = append(kept, r)
    }
    if len(kept) == 0 {
        return 0, nil
    }

    batch.Recipients = kept
    sent, err := n.Next.NotifyUnanswered(ctx, batch)
    if err != nil && len(claimed) > 0 {
        if derr := n.store.Del(context.WithoutCancel(ctx), claimed...).Err(); derr != nil {
            log.Warn("releasing cooldown failed", "error", derr)
        }
    }
    return sent, err
}
