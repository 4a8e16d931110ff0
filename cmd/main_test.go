package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/okian/salesboard/internal/adapters/http/api"
	"github.com/okian/salesboard/internal/adapters/warehouse"
	service "github.com/okian/salesboard/internal/app"
	"github.com/okian/salesboard/internal/config"
	model "github.com/okian/salesboard/internal/domain/model"
	"github.com/okian/salesboard/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// stubQuerier answers every statement with no rows.
type stubQuerier struct{}

func (stubQuerier) Driver() string { return "stub" }
func (stubQuerier) Bind(_ int, v any) (string, any) { return warehouse.Positional(0, v) }
func (stubQuerier) Query(context.Context, warehouse.Statement) ([]model.Row, error) {
	return nil, nil
}
func (stubQuerier) Close() error { return nil }

func signed(secret, email, region string) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"user_metadata": map[string]any{
			"name": "Rina", "region": region, "role": "admin",
		},
	})
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		panic(err)
	}
	return s
}

func TestOpenIdentity(t *testing.T) {
	convey.Convey("Given a config without Postgres and with an unreachable Redis", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.JWTSecret = "secret"
		cfg.RedisURL = "not-a-url"

		wh, err := warehouse.New(stubQuerier{})
		convey.So(err, convey.ShouldBeNil)

		resolver, zones, closeIdentity, err := openIdentity(ctx, cfg, wh, logger.Get())
		convey.So(err, convey.ShouldBeNil)
		defer closeIdentity()

		convey.Convey("Then identities come from the token profile", func() {
			id, err := resolver.Resolve(ctx, "Bearer "+signed("secret", "rina@example.com", "R06"))
			convey.So(err, convey.ShouldBeNil)
			convey.So(id.Email, convey.ShouldEqual, "rina@example.com")
			convey.So(id.Region, convey.ShouldEqual, "R06")
			convey.So(id.IsAdmin(), convey.ShouldBeTrue)
			convey.So(zones, convey.ShouldNotBeNil)
		})

		convey.Convey("Then tokens signed with another secret are rejected", func() {
			_, err := resolver.Resolve(ctx, "Bearer "+signed("other", "rina@example.com", "R06"))
			convey.So(err, convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given a config without a token secret", t, func() {
		cfg := config.New()
		wh, err := warehouse.New(stubQuerier{})
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then wiring fails", func() {
			_, _, _, err := openIdentity(context.Background(), cfg, wh, logger.Get())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestServerWiring(t *testing.T) {
	convey.Convey("Given the service wired as in main", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.JWTSecret = "secret"
		registry, err := cfg.Registry()
		convey.So(err, convey.ShouldBeNil)

		wh, err := warehouse.New(stubQuerier{})
		convey.So(err, convey.ShouldBeNil)
		resolver, _, closeIdentity, err := openIdentity(ctx, cfg, wh, logger.Get())
		convey.So(err, convey.ShouldBeNil)
		defer closeIdentity()

		svc := service.New(wh, service.WithRegistry(registry))
		defer svc.Stop()

		mux := http.NewServeMux()
		api.NewServer(svc, resolver).Register(mux)

		convey.Convey("Then the competition list is served", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/competitions/list", nil)
			req.Header.Set("Authorization", "Bearer "+signed("secret", "rina@example.com", model.AllRegions))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "amo_jan_2026")
		})

		convey.Convey("Then health reports a cold cache", func() {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "degraded")
		})
	})
}
