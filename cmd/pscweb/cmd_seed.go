package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OptimisticPessimist/pscweb3/internal/fixture"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a production fixture (YAML) into the database",
	Long: `Reads a production fixture (project, members, script, polls with
candidates and answers) and inserts it as a new project.  The schema is
applied first.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "fixture file (required)")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	if seedFile == "" {
		return errors.New("--file is required")
	}
	prod, err := fixture.LoadFile(seedFile)
	if err != nil {
		return err
	}
	db, d, err := openMigrated(cmd.Context())
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := fixture.NewSeeder(db, d).Seed(cmd.Context(), prod)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "project %s: %d members, %d candidates, %d answers\n", res.ProjectID, len(res.MemberIDs), res.Candidates, res.Answers)
	for _, id := range res.PollIDs {
		fmt.Fprintf(out, "poll %s\n", id)
	}
	return nil
}
