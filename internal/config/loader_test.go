package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/salesboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		setRequiredEnv()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
				convey.So(cfg.WarehouseDSN, convey.ShouldEqual, "clickhouse://localhost:9000/sales")
				convey.So(cfg.StaleCheckMinutes, convey.ShouldEqual, 15)
				convey.So(cfg.Competitions, convey.ShouldContainKey, "amo_jan_2026")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SALESBOARD_ADDR", ":8080")
			_ = os.Setenv("SALESBOARD_WAREHOUSE_DRIVER", "snowflake")
			_ = os.Setenv("SALESBOARD_STALE_CHECK_MINUTES", "5")
			_ = os.Setenv("SALESBOARD_SUMMARY_DIVISIONS", "AEGDA,AEPDA,SME")
			_ = os.Setenv("SALESBOARD_REDIS_URL", "redis://localhost:6379/0")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.WarehouseDriver, convey.ShouldEqual, "snowflake")
				convey.So(cfg.StaleCheckMinutes, convey.ShouldEqual, 5)
				convey.So(cfg.SummaryDivisions, convey.ShouldResemble, []string{"AEGDA", "AEPDA", "SME"})
				convey.So(cfg.RedisURL, convey.ShouldEqual, "redis://localhost:6379/0")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
query_timeout_seconds: 10
default_competition: amo_feb_2026
competitions:
  amo_feb_2026:
    title: "MONITORING KOMPETISI AMO"
    period: "FEBRUARI 2026"
    tables:
      ass: rank_ass_feb
      bm: rank_bm_feb
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("SALESBOARD_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then the file competitions replace the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.QueryTimeoutSeconds, convey.ShouldEqual, 10)
				convey.So(cfg.Competitions, convey.ShouldHaveLength, 1)
				convey.So(cfg.Competitions["amo_feb_2026"].Tables["bm"], convey.ShouldEqual, "rank_bm_feb")
			})

			convey.Convey("And environment variables override file values", func() {
				_ = os.Setenv("SALESBOARD_ADDR", ":8080")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueryTimeoutSeconds, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("SALESBOARD_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("SALESBOARD_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a required value is missing", func() {
			_ = os.Unsetenv("SALESBOARD_JWT_SECRET")

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When a number is malformed", func() {
			_ = os.Setenv("SALESBOARD_STALE_CHECK_MINUTES", "soon")

			_, err := config.Load(ctx)

			convey.Convey("Then unmarshalling should fail", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func setRequiredEnv() {
	_ = os.Setenv("SALESBOARD_WAREHOUSE_DSN", "clickhouse://localhost:9000/sales")
	_ = os.Setenv("SALESBOARD_JWT_SECRET", "secret")
}

func clearConfigEnvVars() {
	envVars := []string{
		"SALESBOARD_CONFIG",
		"SALESBOARD_ADDR",
		"SALESBOARD_WAREHOUSE_DRIVER",
		"SALESBOARD_WAREHOUSE_DSN",
		"SALESBOARD_JWT_SECRET",
		"SALESBOARD_STALE_CHECK_MINUTES",
		"SALESBOARD_SUMMARY_DIVISIONS",
		"SALESBOARD_REDIS_URL",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "salesboard-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
