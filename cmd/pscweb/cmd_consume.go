package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/OptimisticPessimist/pscweb3/internal/config"
	"github.com/OptimisticPessimist/pscweb3/internal/queue"
)

var consumeCmd = &cobra.Command{
	Use:   "consume-reminders",
	Short: "Consume reminder events and append them to the reminder log",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rem := config.LoadReminderConfig()
		err := queue.StartReminderConsumer(cmd.Context(), queue.ConsumerConfig{URL: rem.AMQPURL, Queue: rem.Queue, LogDir: rem.LogDir})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}
