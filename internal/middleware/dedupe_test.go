package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/vaultbank/vaultbank/internal/logging"
)

func setupDedupeApp(t *testing.T) (*fiber.App, *redis.Client, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := fiber.New()
	app.Use(Dedupe(cache, time.Minute, logging.Discard()))
	app.Post("/transfer", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}
	return app, cache, cleanup
}

func postTransfer(t *testing.T, app *fiber.App, body string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/transfer", strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestDedupeReleasesMarkerAfterCompletion(t *testing.T) {
	app, _, cleanup := setupDedupeApp(t)
	defer cleanup()

	// Sequential identical requests both succeed: the guard only covers
	// in-flight duplicates, it is not a durable idempotency key.
	if status := postTransfer(t, app, `{"toAccountNumber":"2222222222","amount":"40.00"}`); status != fiber.StatusOK {
		t.Fatalf("first request: %d", status)
	}
	if status := postTransfer(t, app, `{"toAccountNumber":"2222222222","amount":"40.00"}`); status != fiber.StatusOK {
		t.Fatalf("second sequential request: %d", status)
	}
}

func TestDedupeRejectsInFlightDuplicate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	release := make(chan struct{})
	app := fiber.New()
	app.Use(Dedupe(cache, time.Minute, logging.Discard()))
	app.Post("/transfer", func(c *fiber.Ctx) error {
		<-release
		return c.SendStatus(fiber.StatusOK)
	})

	firstDone := make(chan int, 1)
	go func() {
		req := httptest.NewRequest(fiber.MethodPost, "/transfer", strings.NewReader(`{"amount":"1.00"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req, -1)
		if err != nil {
			firstDone <- 0
			return
		}
		resp.Body.Close()
		firstDone <- resp.StatusCode
	}()

	// Wait for the first request to reserve its marker.
	deadline := time.Now().Add(2 * time.Second)
	for {
		keys := mr.Keys()
		if len(keys) > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("first request never reserved a marker")
		}
		time.Sleep(5 * time.Millisecond)
	}

	req := httptest.NewRequest(fiber.MethodPost, "/transfer", strings.NewReader(`{"amount":"1.00"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("duplicate request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 for in-flight duplicate, got %d", resp.StatusCode)
	}

	close(release)
	if status := <-firstDone; status != fiber.StatusOK {
		t.Fatalf("first request finished with %d", status)
	}
}

func TestDedupeIgnoresDifferentBodies(t *testing.T) {
	app, _, cleanup := setupDedupeApp(t)
	defer cleanup()

	if status := postTransfer(t, app, `{"amount":"1.00"}`); status != fiber.StatusOK {
		t.Fatalf("first request: %d", status)
	}
	if status := postTransfer(t, app, `{"amount":"2.00"}`); status != fiber.StatusOK {
		t.Fatalf("different body rejected: %d", status)
	}
}

func TestDedupeFailsOpenWithoutRedis(t *testing.T) {
	app := fiber.New()
	app.Use(Dedupe(nil, time.Minute, logging.Discard()))
	app.Post("/transfer", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	if status := postTransfer(t, app, `{}`); status != fiber.StatusOK {
		t.Fatalf("expected pass-through without cache, got %d", status)
	}
}
