package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/monopad/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("MONOPAD_ADDR", ":8080")
			_ = os.Setenv("MONOPAD_QUEUE_CAPACITY", "64")
			_ = os.Setenv("MONOPAD_LEDGER_SIZE", "1000")
			_ = os.Setenv("MONOPAD_FADE_STEP_MS", "20")
			_ = os.Setenv("MONOPAD_FADE_STEP", "0.1")
			_ = os.Setenv("MONOPAD_DISMISS_FADES_MUSIC", "false")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueCapacity, convey.ShouldEqual, 64)
				convey.So(cfg.LedgerSize, convey.ShouldEqual, 1000)
				convey.So(cfg.FadeStepMS, convey.ShouldEqual, 20)
				convey.So(cfg.FadeStep, convey.ShouldEqual, 0.1)
				convey.So(cfg.DismissFadesMusic, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			tmpFile := createTempFile("monopad-config-*.yaml", `
# overlay host
addr: ":9090"  # inline
store: redis
redis_url: "redis://localhost:6379/2"
redis_prefix: stream
default_volume: 0.4
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("MONOPAD_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the file and keep defaults for the rest", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Store, convey.ShouldEqual, config.StoreRedis)
				convey.So(cfg.RedisURL, convey.ShouldEqual, "redis://localhost:6379/2")
				convey.So(cfg.RedisPrefix, convey.ShouldEqual, "stream")
				convey.So(cfg.DefaultVolume, convey.ShouldEqual, 0.4)
				convey.So(cfg.FadeStepMS, convey.ShouldEqual, 15)
			})
		})

		convey.Convey("When both file and environment set a key", func() {
			tmpFile := createTempFile("monopad-config-*.yaml", "addr: \":9090\"\nqueue_capacity: 8\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("MONOPAD_CONFIG", tmpFile)
			_ = os.Setenv("MONOPAD_ADDR", ":8080")

			cfg, err := config.Load(ctx)

			convey.Convey("Then the environment wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueCapacity, convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When a dotenv file is named", func() {
			tmpFile := createTempFile("monopad-*.env", "MONOPAD_LOG_LEVEL=debug\nMONOPAD_ADDR=:7000\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("MONOPAD_DOTENV", tmpFile)
			_ = os.Setenv("MONOPAD_ADDR", ":8081")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it fills unset variables without overriding set ones", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.Addr, convey.ShouldEqual, ":8081")
			})
		})

		convey.Convey("When the config file is invalid YAML", func() {
			tmpFile := createTempFile("monopad-config-*.yaml", `invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("MONOPAD_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the named files do not exist", func() {
			_ = os.Setenv("MONOPAD_CONFIG", "/non/existent/file.yaml")
			cfg, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			convey.So(cfg, convey.ShouldBeNil)

			_ = os.Unsetenv("MONOPAD_CONFIG")
			_ = os.Setenv("MONOPAD_DOTENV", "/non/existent/.env")
			cfg, err = config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loading config with an empty addr", func() {
			_ = os.Setenv("MONOPAD_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the redis store has no URL", func() {
			_ = os.Setenv("MONOPAD_STORE", "redis")

			_, err := config.Load(ctx)

			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a numeric variable does not parse", func() {
			_ = os.Setenv("MONOPAD_QUEUE_CAPACITY", "lots")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				if name := kv[:i]; len(name) > 8 && name[:8] == "MONOPAD_" {
					_ = os.Unsetenv(name)
				}
				break
			}
		}
	}
}

func createTempFile(pattern, content string) string {
	tmpFile, err := os.CreateTemp("", pattern)
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
