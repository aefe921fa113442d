package routes

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/vaultbank/vaultbank/internal/account"
	"github.com/vaultbank/vaultbank/internal/auth"
	"github.com/vaultbank/vaultbank/internal/config"
	"github.com/vaultbank/vaultbank/internal/ledger"
	"github.com/vaultbank/vaultbank/internal/middleware"
	"github.com/vaultbank/vaultbank/internal/notification"
	"github.com/vaultbank/vaultbank/internal/session"
)

const (
	signupWindow   = 15 * time.Minute
	signupMax      = 10
	dedupeTTL      = 30 * time.Second
	historyDefault = 50
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// ErrorHandler renders every error as a JSON envelope with a single message
// field. Unexpected faults get a generic message; details stay in the logs.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	return c.Status(code).JSON(fiber.Map{"message": message})
}

// Setup configures middlewares and all application routes. Without a database
// the service runs on in-memory stores, which is only suitable for tests and
// local development.
func Setup(app *fiber.App, d Deps) error {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var (
		accountRepo account.Repository
		ledgerStore ledger.Ledger
	)
	if d.DB != nil {
		accountRepo = account.NewPostgresRepository(d.DB)
		ledgerStore = ledger.NewPostgresLedger(d.DB)
	} else {
		memRepo := account.NewMemoryRepository()
		accountRepo = memRepo
		ledgerStore = ledger.NewMemory(memRepo)
	}

	accounts := account.NewService(accountRepo)
	issuer := session.NewIssuer(d.Cfg.JWTSecret, d.Cfg.SessionTTL)
	notifier := notification.NewLoggerNotifier(d.Logger)

	accountHandler := account.NewHandler(accounts)
	authHandler := auth.NewHandler(d.Cfg, accounts, issuer)
	ledgerHandler := ledger.NewHandler(ledgerStore, notifier, d.Logger)

	if err := accounts.EnsureAdmin(context.Background(),
		d.Cfg.AdminUsername, d.Cfg.AdminAccount, d.Cfg.AdminPassword); err != nil {
		return err
	}

	sessionAuth := middleware.SessionAuth(d.Cfg.CookieName, issuer)
	dedupe := middleware.Dedupe(d.Cache, dedupeTTL, d.Logger)

	RegisterUserRoutes(app, d, accountHandler, authHandler, ledgerHandler, sessionAuth, dedupe)
	RegisterAdminRoutes(app, accounts, ledgerStore, accountHandler, ledgerHandler, sessionAuth)

	return nil
}
