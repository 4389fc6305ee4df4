// Command tenantctl provisions and inspects tenants. Tenant creation has no
// HTTP surface, operators run this against the store directly.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	_ "github.com/lib/pq"

	"github.com/zerocrm/recordstore/internal/adapter/repository/postgres"
	"github.com/zerocrm/recordstore/internal/pkg/apikey"
	"github.com/zerocrm/recordstore/internal/pkg/config"
	"github.com/zerocrm/recordstore/internal/pkg/logger"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: tenantctl <command> [flags]

commands:
  create -email <address>   provision a tenant and print its API key
  rotate -tenant <id>       replace a tenant's API key and print the new one
  show   -tenant <id>       print a tenant's account record, key masked
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if cfg.PostgresURL == "" {
		log.Error("POSTGRES_URL is required, tenantctl works against the postgres store")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		log.Error("failed to open postgres connection", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	ids := postgres.NewIdentity(db, clock.New(), log)

	switch os.Args[1] {
	case "create":
		fs := flag.NewFlagSet("create", flag.ExitOnError)
		email := fs.String("email", "", "tenant email address")
		_ = fs.Parse(os.Args[2:])
		if *email == "" {
			fs.Usage()
			os.Exit(2)
		}

		tenant, err := ids.CreateTenant(ctx, *email)
		if err != nil {
			log.Error("failed to create tenant", "error", err)
			os.Exit(1)
		}
		// The full key is printed exactly once, at issuance.
		fmt.Printf("tenant:  %s\nemail:   %s\napi key: %s\n", tenant.ID, tenant.Email, tenant.APIKey)

	case "rotate":
		fs := flag.NewFlagSet("rotate", flag.ExitOnError)
		tenantID := fs.String("tenant", "", "tenant id")
		_ = fs.Parse(os.Args[2:])
		if *tenantID == "" {
			fs.Usage()
			os.Exit(2)
		}

		key, err := ids.RotateKey(ctx, *tenantID)
		if err != nil {
			log.Error("failed to rotate key", "error", err, "tenant_id", *tenantID)
			os.Exit(1)
		}
		fmt.Printf("api key: %s\n", key)

	case "show":
		fs := flag.NewFlagSet("show", flag.ExitOnError)
		tenantID := fs.String("tenant", "", "tenant id")
		_ = fs.Parse(os.Args[2:])
		if *tenantID == "" {
			fs.Usage()
			os.Exit(2)
		}

		tenant, err := ids.TenantByID(ctx, *tenantID)
		if err != nil {
			log.Error("failed to load tenant", "error", err, "tenant_id", *tenantID)
			os.Exit(1)
		}
		fmt.Printf("tenant:  %s\nemail:   %s\napi key: %s\ncreated: %s\n",
			tenant.ID, tenant.Email, apikey.Mask(tenant.APIKey), tenant.CreatedAt.Format(time.RFC3339))

	default:
		usage()
		os.Exit(2)
	}
}
