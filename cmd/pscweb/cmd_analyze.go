package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OptimisticPessimist/pscweb3/internal/display"
)

var (
	analyzePoll     string
	analyzeMarkdown bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Print the scene x candidate matrix and recommendations of a poll",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzePoll, "poll", "", "poll id (required)")
	analyzeCmd.Flags().BoolVar(&analyzeMarkdown, "markdown", false, "render Markdown tables")
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	if analyzePoll == "" {
		return errors.New("--poll is required")
	}
	db, d, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	eng, err := newEngine(db, d)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	analysis, err := eng.Analyze(ctx, analyzePoll)
	if err != nil {
		return err
	}
	recs, err := eng.Recommend(ctx, analyzePoll)
	if err != nil {
		return err
	}
	missing, err := eng.Unanswered(ctx, analyzePoll)
	if err != nil {
		return err
	}

	mode := display.ASCII
	if analyzeMarkdown {
		mode = display.Markdown
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, display.Matrix(analysis, mode))
	fmt.Fprintln(out)
	fmt.Fprintln(out, display.Recommendations(recs, mode))
	if len(missing) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, display.Unanswered(missing, mode))
	}
	return nil
}
