// Command prune deletes listings that ended more than -days ago, removing
// their photos from the bucket first.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kcgaragesales/kc-garage-sales/internal/config"
	"github.com/kcgaragesales/kc-garage-sales/internal/media"
	"github.com/kcgaragesales/kc-garage-sales/internal/sales"
)

var (
	dsn    = flag.String("dsn", "", "Postgres DSN (default: env DATABASE_URL)")
	days   = flag.Int("days", 30, "Delete listings whose end date is more than this many days ago")
	dryRun = flag.Bool("dry-run", false, "List what would be deleted; no writes")
)

type expired struct {
	ID      string
	Title   string
	EndDate string
	Photos  []string
}

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fatalf("config: %v", err)
	}
	if *dsn == "" {
		*dsn = cfg.DatabaseURL
	}
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}
	if *days < 0 {
		fatalf("--days must not be negative")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	cutoff := sales.DateOf(time.Now().In(cfg.Location()).AddDate(0, 0, -*days))
	rows, err := findExpired(ctx, db, cutoff)
	if err != nil {
		fatalf("query: %v", err)
	}
	fmt.Printf("Found %d listings that ended before %s\n", len(rows), cutoff)

	if *dryRun {
		for _, r := range rows {
			fmt.Printf("  %s  %s  %q (%d photos)\n", r.ID, r.EndDate, r.Title, len(r.Photos))
		}
		fmt.Println("Dry run complete. No changes made.")
		return
	}
	if len(rows) == 0 {
		return
	}

	var store media.Store
	if cfg.StorageBucket != "" {
		gcs, err := media.NewGCS(ctx, cfg.StorageBucket, cfg.StoragePublicBaseURL, cfg.StorageCredentials)
		if err != nil {
			// Photos are best-effort; the rows still go.
			log.Warn().Err(err).Msg("storage unavailable, photos will be left in the bucket")
		} else {
			defer gcs.Close()
			store = gcs
		}
	}

	deleted := 0
	for _, r := range rows {
		if store != nil {
			for _, p := range r.Photos {
				if err := store.Delete(ctx, p); err != nil {
					log.Warn().Err(err).Str("sale_id", r.ID).Msg("photo delete failed")
				}
			}
		}
		res, err := db.ExecContext(ctx, `DELETE FROM listings.garage_sales WHERE id = $1`, r.ID)
		if err != nil {
			fatalf("delete %s: %v", r.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			deleted++
		}
	}
	fmt.Printf("Deleted %d listings\n", deleted)
}

func findExpired(ctx context.Context, db *sql.DB, cutoff sales.Date) ([]expired, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id::text, title, end_date::text, to_json(photos)::text
		FROM listings.garage_sales
		WHERE end_date < $1::date
		ORDER BY end_date`, string(cutoff))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []expired
	for rows.Next() {
		var (
			e      expired
			photos string
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.EndDate, &photos); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(photos), &e.Photos); err != nil {
			return nil, fmt.Errorf("decoding photos for %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "ERROR: "+format+"\n", args...)
	os.Exit(1)
}
