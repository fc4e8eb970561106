package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"gorm.io/gorm"

	"cashbook/internal/config"
	"cashbook/internal/db"
	"cashbook/internal/logging"
	"cashbook/internal/model"
	"cashbook/internal/repository"
)

// LegacyUser is one record of a legacy users export. Password may be a bcrypt
// hash or plaintext; plaintext is upgraded on the user's next login.
type LegacyUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func main() {
	source := flag.String("source", "", "path or http(s) URL of a JSON array of {username, password}")
	flag.Parse()

	log := logging.New(os.Stderr, "info", "text")
	if *source == "" {
		log.Error("missing -source")
		os.Exit(2)
	}

	cfg, err := config.LoadStore()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	gormDB, err := db.Open(db.Options{Driver: cfg.StoreDriver, DSN: cfg.StoreDSN, DBName: cfg.DBName})
	if err != nil {
		log.Error("database init", "error", err)
		os.Exit(1)
	}
	defer db.Close(gormDB)

	if err := db.Migrate(gormDB); err != nil {
		log.Error("database migrate", "error", err)
		os.Exit(1)
	}

	log.Info("reading legacy users", "source", *source)
	users, err := readLegacyUsers(*source)
	if err != nil {
		log.Error("read legacy users", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	created, skipped, err := seedUsers(ctx, repository.NewUserRepository(gormDB), users, log)
	if err != nil {
		log.Error("seed users", "error", err)
		os.Exit(1)
	}
	log.Info("seed completed", "created", created, "skipped", skipped, "total", len(users))
}

// readLegacyUsers loads the export from a local file or over HTTP.
func readLegacyUsers(source string) ([]LegacyUser, error) {
	var body io.ReadCloser
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := http.Get(source)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", source, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: status %d", source, resp.StatusCode)
		}
		body = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, err
		}
		body = f
	}
	defer body.Close()

	return decodeLegacyUsers(body)
}

func decodeLegacyUsers(r io.Reader) ([]LegacyUser, error) {
	var users []LegacyUser
	if err := json.NewDecoder(r).Decode(&users); err != nil {
		return nil, fmt.Errorf("parse legacy users: %w", err)
	}
	return users, nil
}

// seedUsers inserts users that do not exist yet. Stored credentials are kept
// verbatim so legacy accounts keep working with their old password.
func seedUsers(ctx context.Context, repo repository.UserRepository, users []LegacyUser, log *slog.Logger) (created int, skipped int, err error) {
	for _, u := range users {
		username := strings.TrimSpace(u.Username)
		if username == "" || u.Password == "" {
			log.Warn("skipping incomplete record", "username", username)
			skipped++
			continue
		}

		existing, err := repo.FindByUsername(ctx, username)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, skipped, fmt.Errorf("look up %q: %w", username, err)
		}
		if existing != nil {
			skipped++
			continue
		}

		if err := repo.Create(ctx, &model.User{Username: username, Password: u.Password}); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				skipped++
				continue
			}
			return created, skipped, fmt.Errorf("create %q: %w", username, err)
		}
		created++
	}
	return created, skipped, nil
}
