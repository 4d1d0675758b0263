// Seeds a handful of fake users into a development database so the admin
// stats and broadcast flows have something to work against.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"telegram-bot-template/internal/config"
	"telegram-bot-template/internal/domain/model"
	"telegram-bot-template/internal/domain/ports/repository"
	pg "telegram-bot-template/internal/infra/db/postgres"
	"telegram-bot-template/internal/infra/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger := logging.New(cfg.Log, true)
	if err := pg.EnsureSchema(cfg.Database.DSN(), logger); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	pool, err := pg.NewPgxPool(ctx, cfg.Database.DSN(), 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	users := pg.NewPostgresUserRepo(pool)

	count, err := users.Count(ctx, repository.NoTX)
	if err != nil {
		log.Fatalf("count users: %v", err)
	}
	if count > 0 {
		fmt.Printf("%d users already present. No changes.\n", count)
		return
	}

	seed := []struct {
		ID       int64
		Username string
	}{
		{100001, "alice_dev"},
		{100002, "bob_dev"},
		{100003, ""}, // hidden username
		{100004, "dora_dev"},
	}

	for _, s := range seed {
		u, err := model.NewUser(s.ID, s.Username)
		if err != nil {
			log.Fatalf("build user %d: %v", s.ID, err)
		}
		if err := users.Save(ctx, repository.NoTX, u); err != nil {
			log.Fatalf("save user %d: %v", s.ID, err)
		}
		fmt.Printf("seeded user %d (%s)\n", u.ID, u.Username)
	}
}
