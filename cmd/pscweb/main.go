// pscweb serves and operates the schedule-poll feasibility engine.
//
// Usage:
//
//	pscweb serve
//	pscweb migrate
//	pscweb seed --file production.yaml
//	pscweb analyze --poll <id> [--markdown]
//	pscweb remind --poll <id> | --project <id>
//	pscweb consume-reminders
//	pscweb token --member <id> --role COORDINATOR|MEMBER
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
