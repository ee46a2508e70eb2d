package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/OptimisticPessimist/pscweb3/internal/config"
	"github.com/OptimisticPessimist/pscweb3/internal/repository"
	"github.com/OptimisticPessimist/pscweb3/internal/scheduling"
	"github.com/OptimisticPessimist/pscweb3/internal/service"
)

// remindParallelism bounds concurrent polls in remind --project.
const remindParallelism = 4

var (
	remindPoll    string
	remindProject string
)

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Remind members who have not answered a poll",
	Long: `Publishes reminder events for the unanswered members of one poll, or
of every open poll of a project.  Members reminded within
REMINDER_COOLDOWN are skipped when Redis is reachable.`,
	RunE: runRemind,
}

func init() {
	remindCmd.Flags().StringVar(&remindPoll, "poll", "", "poll id")
	remindCmd.Flags().StringVar(&remindProject, "project", "", "project id; reminds every open poll")
	remindCmd.MarkFlagsMutuallyExclusive("poll", "project")
	remindCmd.MarkFlagsOneRequired("poll", "project")
}

// reminder is the engine call remindAll fans out.
type reminder interface {
	Remind(ctx context.Context, pollID string, n scheduling.Notifier) (int, error)
}

func runRemind(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	db, d, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	eng, err := newEngine(db, d)
	if err != nil {
		return err
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}
	rem := config.LoadReminderConfig()
	notifier := service.NewCooldownNotifier(service.NewReminderPublisher(rem.AMQPURL, rem.Queue), rdb, rem.Cooldown)

	pollIDs := []string{remindPoll}
	if remindProject != "" {
		polls, err := repository.NewPollRepo(db).ListOpenByProject(ctx, remindProject)
		if err != nil {
			return err
		}
		pollIDs = pollIDs[:0]
		for _, p := range polls {
			pollIDs = append(pollIDs, p.ID)
		}
		if len(pollIDs) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "project %s has no open polls\n", remindProject)
			return nil
		}
	}
	return remindAll(ctx, cmd.OutOrStdout(), eng, notifier, pollIDs)
}

// remindAll reminds each poll with at most remindParallelism in
// flight.  Every poll is attempted and the failures come back joined.
func remindAll(ctx context.Context, out io.Writer, eng reminder, n scheduling.Notifier, pollIDs []string) error {
	var (
		mu    sync.Mutex
		total int
		errs  []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(remindParallelism)
	for _, id := range pollIDs {
		id := id
		g.Go(func() error {
			sent, err := eng.Remind(gctx, id, n)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fmt.Fprintf(out, "poll %s: %v\n", id, err)
				errs = append(errs, fmt.Errorf("poll %s: %w", id, err))
				return nil
			}
			total += sent
			fmt.Fprintf(out, "poll %s: reminded %d\n", id, sent)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Fprintf(out, "total reminded %d\n", total)
	return errors.Join(errs...)
}
