package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OptimisticPessimist/pscweb3/internal/config"
	"github.com/OptimisticPessimist/pscweb3/internal/repository"
	"github.com/OptimisticPessimist/pscweb3/internal/utils"
)

var (
	tokenMember  string
	tokenProject string
	tokenRole    string
	tokenTTL     int
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for a member",
	Long: `Issues an HS256 access token signed with JWT_SECRET.  Without
--project the member is looked up to find its project.`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenMember, "member", "", "member id (required)")
	tokenCmd.Flags().StringVar(&tokenProject, "project", "", "project id")
	tokenCmd.Flags().StringVar(&tokenRole, "role", utils.RoleMember, "COORDINATOR or MEMBER")
	tokenCmd.Flags().IntVar(&tokenTTL, "ttl", 0, "lifetime in minutes (default ACCESS_TOKEN_TTL_MIN or 60)")
}

func runToken(cmd *cobra.Command, _ []string) error {
	if tokenMember == "" {
		return errors.New("--member is required")
	}
	if tokenRole != utils.RoleCoordinator && tokenRole != utils.RoleMember {
		return fmt.Errorf("unknown role %q", tokenRole)
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	ttl := tokenTTL
	if ttl <= 0 {
		ttl = config.LoadAccessTTL()
	}

	project := tokenProject
	if project == "" {
		db, _, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		m, err := repository.NewMemberRepo(db).GetByID(cmd.Context(), tokenMember)
		if err != nil {
			return err
		}
		project = m.ProjectID
	}

	tok, err := utils.NewAccessToken(secret, tokenMember, project, tokenRole, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
	return nil
}
