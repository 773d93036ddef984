package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/samuelfneumann/gomultiworld/environment"
	"github.com/samuelfneumann/gomultiworld/environment/envconfig"
	"github.com/samuelfneumann/gomultiworld/environment/point2d"
	"github.com/samuelfneumann/gomultiworld/environment/wrappers"
	"github.com/samuelfneumann/gomultiworld/experiment"
	"github.com/samuelfneumann/gomultiworld/experiment/tracker"
	"github.com/samuelfneumann/gomultiworld/utils/logging"
)

// Environment variables, possibly set in a .env file, supply the
// defaults of the command line flags
const (
	envConfig      = "GOMULTIWORLD_CONFIG"
	envSeed        = "GOMULTIWORLD_SEED"
	envSteps       = "GOMULTIWORLD_STEPS"
	envLogLevel    = "GOMULTIWORLD_LOG_LEVEL"
	envLogEncoding = "GOMULTIWORLD_LOG_ENCODING"
	envPNG         = "GOMULTIWORLD_PNG"
	envSave        = "GOMULTIWORLD_SAVE_DIR"
)

type options struct {
	config      string
	seed        uint64
	steps       uint
	logLevel    string
	logEncoding string
	png         string
	saveDir     string
}

func main() {
	// Load .env file if available
	envErr := godotenv.Load()

	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := logging.New(opts.logLevel, opts.logEncoding)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Debug(".env file not found or could not be loaded",
			zap.Error(envErr))
	}

	if err := run(opts, logger); err != nil {
		logger.Fatal("experiment failed", zap.Error(err))
	}
}

// parseFlags parses the command line flags, taking defaults from the
// environment
func parseFlags() (options, error) {
	seed, err := strconv.ParseUint(getEnvWithDefault(envSeed, "192382"),
		10, 64)
	if err != nil {
		return options{}, fmt.Errorf("parseFlags: %v must be an unsigned "+
			"integer: %w", envSeed, err)
	}
	steps, err := strconv.ParseUint(getEnvWithDefault(envSteps, "1000"),
		10, 64)
	if err != nil {
		return options{}, fmt.Errorf("parseFlags: %v must be an unsigned "+
			"integer: %w", envSteps, err)
	}

	var opts options
	flag.StringVar(&opts.config, "config", os.Getenv(envConfig),
		"environment config file (.json, .yaml, .yml), defaults if empty")
	flag.Uint64Var(&opts.seed, "seed", seed, "random seed")
	flag.UintVar(&opts.steps, "steps", uint(steps),
		"number of environment steps to run")
	flag.StringVar(&opts.logLevel, "log-level",
		getEnvWithDefault(envLogLevel, "info"), "log level")
	flag.StringVar(&opts.logEncoding, "log-encoding",
		getEnvWithDefault(envLogEncoding, logging.Console),
		"log encoding (console or json)")
	flag.StringVar(&opts.png, "png", os.Getenv(envPNG),
		"save a frame of the final environment state to this PNG file")
	flag.StringVar(&opts.saveDir, "save", os.Getenv(envSave),
		"directory to save tracked returns, lengths and successes to")
	flag.Parse()

	return opts, nil
}

// run runs a uniform random agent in the configured environment and
// logs the diagnostics of all episodes
func run(opts options, logger *zap.Logger) error {
	envConf := envconfig.Default()
	if opts.config != "" {
		var err error
		if envConf, err = envconfig.Load(opts.config); err != nil {
			return err
		}
	}

	var trackers []tracker.Tracker
	if opts.saveDir != "" {
		if err := os.MkdirAll(opts.saveDir, 0o755); err != nil {
			return fmt.Errorf("run: %w", err)
		}
		trackers = []tracker.Tracker{
			tracker.NewReturn(filepath.Join(opts.saveDir, "returns.bin")),
			tracker.NewEpisodeLength(filepath.Join(opts.saveDir, "lengths.bin")),
			tracker.NewSuccess(point2d.InfoIsSuccess,
				filepath.Join(opts.saveDir, "successes.bin")),
		}
	}

	c := experiment.Config{
		Type:     experiment.OnlineExp,
		MaxSteps: opts.steps,
		EnvConf:  envConf,
	}
	exp, err := c.CreateExp(opts.seed, trackers, logger)
	if err != nil {
		return err
	}
	online := exp.(*experiment.Online)
	if opts.saveDir != "" {
		for _, t := range wrappedTrackers(online.Environment, opts.saveDir) {
			online.Register(t)
		}
	}

	if err := exp.Run(); err != nil {
		return err
	}
	if err := exp.Save(); err != nil {
		return err
	}

	stats, err := online.Diagnostics("exploration/")
	if err != nil {
		return err
	}
	for _, s := range stats {
		logger.Info("diagnostic", zap.String("name", s.Name),
			zap.Float64("value", s.Value))
	}

	if opts.png == "" {
		return nil
	}
	return savePNG(online.Environment, opts.png, logger)
}

// wrappedTrackers returns Trackers of the Point2D wrapped by an
// ImageEnv, which save into dir. Experiments on a bare Point2D need
// none, since the top-level Trackers already see its TimeSteps.
func wrappedTrackers(e environment.Environment,
	dir string) []tracker.Tracker {
	img, ok := e.(*wrappers.ImageEnv)
	if !ok {
		return nil
	}

	inner := img.ImageGoalEnvironment
	return []tracker.Tracker{
		tracker.Register(
			tracker.NewReturn(filepath.Join(dir, "state_returns.bin")),
			inner,
		),
	}
}

// savePNG saves a frame of the innermost Point2D environment
func savePNG(e environment.Environment, path string,
	logger *zap.Logger) error {
	for {
		switch env := e.(type) {
		case *point2d.Point2D:
			if err := env.SavePNG(path); err != nil {
				return err
			}
			logger.Info("saved frame", zap.String("path", path))
			return nil

		case *wrappers.ImageEnv:
			e = env.ImageGoalEnvironment

		default:
			return fmt.Errorf("savePNG: environment %T cannot be rendered "+
				"to a PNG", e)
		}
	}
}

// getEnvWithDefault retrieves the value of an environment variable or
// returns a default value if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
