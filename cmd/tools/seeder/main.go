package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-jastip/internal/app"
	"github.com/noah-isme/backend-jastip/internal/auth"
	"github.com/noah-isme/backend-jastip/internal/common"
	"github.com/noah-isme/backend-jastip/internal/config"
	"github.com/noah-isme/backend-jastip/internal/customer"
	"github.com/noah-isme/backend-jastip/internal/obs"
	"github.com/noah-isme/backend-jastip/internal/order"
	"github.com/noah-isme/backend-jastip/internal/pricing"
	"github.com/noah-isme/backend-jastip/internal/settings"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "seeder").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx)

	deps, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close()

	if err := seedAdmin(ctx, auth.NewStore(deps.DB), logger); err != nil {
		logger.Fatal().Err(err).Msg("seed admin")
	}
	if err := seedSettings(ctx, deps.Settings); err != nil {
		logger.Fatal().Err(err).Msg("seed settings")
	}
	if strings.EqualFold(os.Getenv("SEED_SAMPLE_DATA"), "true") {
		if err := seedSamples(ctx, deps.Customers, deps.Orders); err != nil {
			logger.Fatal().Err(err).Msg("seed sample data")
		}
	}
	logger.Info().Msg("seeding completed")
}

func seedAdmin(ctx context.Context, store auth.Store, logger zerolog.Logger) error {
	email := envOrDefault("SEED_ADMIN_EMAIL", "admin@jastip.local")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		return errors.New("SEED_ADMIN_PASSWORD is required")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	admin, err := store.UpsertAdmin(ctx, auth.Admin{
		Email:        strings.ToLower(email),
		Name:         envOrDefault("SEED_ADMIN_NAME", "Admin"),
		PasswordHash: hash,
	})
	if err != nil {
		return err
	}
	logger.Info().Str("admin_id", admin.ID).Str("email", admin.Email).Msg("admin ready")
	return nil
}

// seedSettings writes the effective pricing back so the row exists.
func seedSettings(ctx context.Context, svc *settings.Service) error {
	current, err := svc.Current(ctx)
	if err != nil {
		return err
	}
	_, err = svc.Update(ctx, settings.UpdateInput{
		UnitPricePerKg:  current.UnitPricePerKg,
		DefaultCurrency: string(current.DefaultCurrency),
	})
	return err
}

var sampleCustomers = []customer.Input{
	{Name: "Budi Santoso", Phone: "081200000001", Address: "Jakarta"},
	{Name: "Siti Aminah", Phone: "081200000002", Address: "Bandung"},
	{Name: "Dewi Lestari", Phone: "081200000003", Address: "Surabaya"},
}

func seedSamples(ctx context.Context, customers *customer.Service, orders *order.Service) error {
	for i, in := range sampleCustomers {
		if _, err := customers.Create(ctx, in); err != nil {
			if isAppCode(err, "CUSTOMER_EXISTS") {
				continue
			}
			return err
		}
		_, err := orders.Create(ctx, order.Form{
			Customer:      in.Name,
			JumlahKg:      pricing.RawFromFloat(float64(i) + 1.2),
			UseAutoJastip: true,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func isAppCode(err error, code string) bool {
	var appErr *common.AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
