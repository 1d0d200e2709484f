// Command admin manages administrator roles and the rank ladder.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"promptgallery/internal/config"
	"promptgallery/internal/database"
	"promptgallery/internal/models"
	"promptgallery/internal/rank"
	"promptgallery/internal/repository"
)

const usage = `Usage:
  admin promote <user_id|username>   - Promote a profile to admin
  admin demote <user_id|username>    - Demote a profile to user
  admin list-admins                  - List all admins
  admin load-tiers <ranks.yml>       - Replace the rank ladder from a YAML file
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	t := tool{
		profiles: repository.NewProfileRepository(db),
		tiers:    repository.NewRankTierRepository(db),
		out:      os.Stdout,
	}
	if err := t.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type tool struct {
	profiles repository.ProfileRepository
	tiers    repository.RankTierRepository
	out      io.Writer
}

func (t tool) run(ctx context.Context, args []string) error {
	switch args[0] {
	case "promote", "demote":
		if len(args) < 2 {
			return fmt.Errorf("usage: admin %s <user_id|username>", args[0])
		}
		role := models.RoleAdmin
		if args[0] == "demote" {
			role = models.RoleUser
		}
		return t.setRole(ctx, args[1], role)
	case "list-admins":
		return t.listAdmins(ctx)
	case "load-tiers":
		if len(args) < 2 {
			return fmt.Errorf("usage: admin load-tiers <ranks.yml>")
		}
		return t.loadTiers(ctx, args[1])
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func (t tool) find(ctx context.Context, ref string) (*models.User, error) {
	user, err := t.profiles.GetByUsername(ctx, ref)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	return t.profiles.GetByID(ctx, ref)
}

func (t tool) setRole(ctx context.Context, ref, role string) error {
	user, err := t.find(ctx, ref)
	if err != nil {
		return err
	}
	if user.Role == role {
		fmt.Fprintf(t.out, "%s (%s) is already %s\n", user.Username, user.ID, role)
		return nil
	}
	if err := t.profiles.Update(ctx, user.ID, map[string]any{"role": role}); err != nil {
		return err
	}
	fmt.Fprintf(t.out, "%s (%s) is now %s\n", user.Username, user.ID, role)
	return nil
}

func (t tool) listAdmins(ctx context.Context) error {
	users, err := t.profiles.ListAll(ctx)
	if err != nil {
		return err
	}
	n := 0
	for _, u := range users {
		if u.IsAdmin() {
			fmt.Fprintf(t.out, "%s\t%s\t%s\n", u.ID, u.Username, u.Email)
			n++
		}
	}
	if n == 0 {
		fmt.Fprintln(t.out, "no admins")
	}
	return nil
}

func (t tool) loadTiers(ctx context.Context, path string) error {
	tiers, err := rank.LoadFile(path)
	if err != nil {
		return err
	}
	if err := t.tiers.ReplaceAll(ctx, tiers); err != nil {
		return err
	}
	fmt.Fprintf(t.out, "loaded %d rank tiers from %s\n", len(tiers), path)
	return nil
}
