package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"framegrab/internal/identity"
)

type stubResolver struct {
	id  *identity.Identity
	err error
}

func (s stubResolver) Resolve(context.Context, string) (*identity.Identity, error) {
	return s.id, s.err
}

func bufferLogger() (*logrus.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})
	return l, &buf
}

func TestIdentity(t *testing.T) {
	tests := []struct {
		name     string
		resolver stubResolver
		wantPro  bool
		wantWarn bool
	}{
		{"pro", stubResolver{id: &identity.Identity{UserID: "u1", Pro: true}}, true, false},
		{"anonymous", stubResolver{}, false, false},
		{"invalid token", stubResolver{id: &identity.Identity{Pro: true}, err: errors.New("expired")}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, buf := bufferLogger()
			app := fiber.New()
			app.Use(Identity(tt.resolver, log))
			app.Get("/", func(c *fiber.Ctx) error {
				return c.JSON(fiber.Map{"pro": identity.IsPro(identity.FromContext(c.UserContext()))})
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer token")
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			var body struct{ Pro bool }
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatal(err)
			}
			if body.Pro != tt.wantPro {
				t.Errorf("pro = %v, want %v", body.Pro, tt.wantPro)
			}
			if warned := strings.Contains(buf.String(), `"level":"warning"`); warned != tt.wantWarn {
				t.Errorf("warned = %v, log %q", warned, buf.String())
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	log, buf := bufferLogger()
	app := fiber.New()
	app.Use(RequestLogger(log))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/bad", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusBadRequest) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("log entry: %v (%q)", err, buf.String())
	}
	if entry["request_id"] != resp.Header.Get("X-Request-ID") || entry["status_code"] != float64(200) || entry["level"] != "info" {
		t.Errorf("entry = %v", entry)
	}

	buf.Reset()
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/bad", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if !strings.Contains(buf.String(), `"level":"warning"`) {
		t.Errorf("client error not logged at warn: %q", buf.String())
	}
}
