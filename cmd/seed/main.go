package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/clinisys/clinic-scheduling/internal/db"
	"github.com/clinisys/clinic-scheduling/internal/identity"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "seed").Logger()
	logger.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		logger.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		logger.Fatal().Err(err).Msg("migrate schema")
	}

	gofakeit.Seed(time.Now().UnixNano())
	minter := newRUNMinter()

	if err := seedDoctors(context.Background(), pool, minter, 10, logger); err != nil {
		logger.Fatal().Err(err).Msg("seed doctors")
	}
	if err := seedPatients(context.Background(), pool, minter, 200, logger); err != nil {
		logger.Fatal().Err(err).Msg("seed patients")
	}

	logger.Info().Msg("seed complete")
}

// runMinter hands out unique, checksum-valid RUNs.
type runMinter struct {
	seen map[string]bool
}

func newRUNMinter() *runMinter {
	return &runMinter{seen: make(map[string]bool)}
}

func (m *runMinter) next() string {
	for {
		body := strconv.Itoa(gofakeit.Number(5_000_000, 25_999_999))
		if m.seen[body] {
			continue
		}
		m.seen[body] = true
		return fmt.Sprintf("%s-%c", body, identity.CheckDigit(body))
	}
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, minter *runMinter, count int, logger zerolog.Logger) error {
	logger.Info().Int("count", count).Msg("seeding doctors")

	specialties := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		run := minter.next()
		name := gofakeit.Name()
		specialty := specialties[gofakeit.Number(0, len(specialties)-1)]
		capacity := gofakeit.Number(5, 15)

		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (run, name, specialty, capacity)
			VALUES ($1, $2, $3, $4)
		`, run, name, specialty, capacity)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	logger.Info().Msg("doctors seeded")
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, minter *runMinter, count int, logger zerolog.Logger) error {
	logger.Info().Int("count", count).Msg("seeding patients")

	const batchSize = 100

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			run := minter.next()
			name := gofakeit.Name()
			age := gofakeit.Number(1, 95)

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (run, name, age)
				VALUES ($1, $2, $3)
			`, run, name, age)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		logger.Info().Int("done", end).Int("total", count).Msg("patients seeded")
	}

	return nil
}
