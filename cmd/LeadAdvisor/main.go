package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ClevensDigital/LeadAdvisor/internal/api"
	"github.com/ClevensDigital/LeadAdvisor/internal/flow"
	"github.com/ClevensDigital/LeadAdvisor/internal/gallery"
	"github.com/ClevensDigital/LeadAdvisor/internal/genai"
	"github.com/ClevensDigital/LeadAdvisor/internal/lockfile"
	"github.com/ClevensDigital/LeadAdvisor/internal/notify"
	"github.com/ClevensDigital/LeadAdvisor/internal/scheduler"
	"github.com/ClevensDigital/LeadAdvisor/internal/store"
	"github.com/ClevensDigital/LeadAdvisor/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for LeadAdvisor state data
	DefaultStateDir = "/var/lib/leadadvisor"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "leadadvisor.db"
	// DefaultWhatsAppDBFileName is the default whatsmeow SQLite filename
	DefaultWhatsAppDBFileName = "whatsmeow.db"
	// DigestWindow is how far back the scheduled lead digest looks
	DigestWindow = 24 * time.Hour
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Start the service
	slog.Info("Bootstrapping LeadAdvisor with configured modules")
	if err := run(config, flags); err != nil {
		slog.Error("LeadAdvisor failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("LeadAdvisor exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseDSN    string
	StateDir       string
	OpenAIKey      string
	OpenAIModel    string
	APIAddr        string
	Directed       bool
	CacheSize      int
	AlertSMSTo     string
	AlertWhatsTo   string
	WhatsAppDBDSN  string
	DigestSchedule string
}

// Flags holds command line flag values
type Flags struct {
	stateDir  *string
	dbDSN     *string
	openaiKey *string
	model     *string
	apiAddr   *string
	directed  *bool
	qrOutput  *string
	numeric   *bool
}

// initializeLogger sets up structured logging at the configured level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel()}))
	slog.SetDefault(logger)
}

// logLevel reads the log level from LEADADVISOR_DEBUG; info unless enabled.
func logLevel() slog.Level {
	if util.ParseBoolEnv("LEADADVISOR_DEBUG", false) {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseDSN:    os.Getenv("DATABASE_URL"),
		StateDir:       os.Getenv("LEADADVISOR_STATE_DIR"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    os.Getenv("OPENAI_MODEL"),
		APIAddr:        os.Getenv("API_ADDR"),
		Directed:       util.ParseBoolEnv("LEADADVISOR_DIRECTED", true),
		AlertSMSTo:     os.Getenv("LEAD_ALERT_SMS_TO"),
		AlertWhatsTo:   os.Getenv("LEAD_ALERT_WHATSAPP_TO"),
		WhatsAppDBDSN:  os.Getenv("WHATSAPP_DB_DSN"),
		DigestSchedule: os.Getenv("LEAD_DIGEST_SCHEDULE"),
	}

	if size := os.Getenv("SESSION_CACHE_SIZE"); size != "" {
		n, err := strconv.Atoi(size)
		if err != nil {
			slog.Warn("Invalid SESSION_CACHE_SIZE, using default", "value", size)
		} else {
			config.CacheSize = n
		}
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No LEADADVISOR_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseDSN == "" {
		config.DatabaseDSN = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseDSN)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseDSN != "",
		"LEADADVISOR_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"OPENAI_MODEL", config.OpenAIModel,
		"API_ADDR", config.APIAddr,
		"LEADADVISOR_DIRECTED", config.Directed,
		"LEAD_ALERT_SMS_TO_SET", config.AlertSMSTo != "",
		"LEAD_ALERT_WHATSAPP_TO_SET", config.AlertWhatsTo != "",
		"LEAD_DIGEST_SCHEDULE", config.DigestSchedule)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:  flag.String("state-dir", config.StateDir, "state directory for LeadAdvisor data (overrides $LEADADVISOR_STATE_DIR)"),
		dbDSN:     flag.String("db-dsn", config.DatabaseDSN, "database DSN for session and lead storage (overrides $DATABASE_URL)"),
		openaiKey: flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		model:     flag.String("model", config.OpenAIModel, "chat completion model (overrides $OPENAI_MODEL)"),
		apiAddr:   flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		directed:  flag.Bool("directed", config.Directed, "let the model drive stage transitions (overrides $LEADADVISOR_DIRECTED)"),
		qrOutput:  flag.String("qr-output", "", "path to write WhatsApp login QR code"),
		numeric:   flag.Bool("numeric-code", false, "use numeric WhatsApp login code instead of QR code"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"model", *flags.model,
		"apiAddr", *flags.apiAddr,
		"directed", *flags.directed)

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DatabaseDSN && config.DatabaseDSN == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "new_state_dir", *flags.stateDir)
	}

	return flags
}

// buildStore selects the storage backend from the DSN and wraps it with the
// session cache.
func buildStore(flags Flags, cacheSize int) (store.Store, error) {
	var backend store.Store
	var err error
	if store.DetectDSNType(*flags.dbDSN) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		backend, err = store.NewPostgresStore(store.WithDSN(*flags.dbDSN))
	} else {
		slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", *flags.dbDSN)
		backend, err = store.NewSQLiteStore(store.WithDSN(*flags.dbDSN))
	}
	if err != nil {
		return nil, err
	}
	return store.NewCachedStore(backend, cacheSize)
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	if *flags.model != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(*flags.model))
	}
	return genaiOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	return apiOpts
}

// buildNotifier attaches the configured lead-alert channels. Channels that
// fail to initialize are skipped with a warning; alerts are optional.
func buildNotifier(config Config, flags Flags) *notify.Notifier {
	notifier := notify.NewNotifier()

	if config.AlertSMSTo != "" {
		smsClient, err := notify.NewTwilioClient()
		if err != nil {
			slog.Warn("SMS lead alerts disabled", "error", err)
		} else {
			notifier.AddChannel("sms", smsClient, config.AlertSMSTo)
		}
	}

	if config.AlertWhatsTo != "" {
		waOpts := []notify.WhatsAppOption{}
		if config.WhatsAppDBDSN != "" {
			waOpts = append(waOpts, notify.WithDBDSN(config.WhatsAppDBDSN))
		} else {
			waOpts = append(waOpts, notify.WithDBDSN(filepath.Join(*flags.stateDir, DefaultWhatsAppDBFileName)))
		}
		if *flags.qrOutput != "" {
			waOpts = append(waOpts, notify.WithQRCodeOutput(*flags.qrOutput))
		}
		if *flags.numeric {
			waOpts = append(waOpts, notify.WithNumericCode())
		}
		waClient, err := notify.NewWhatsAppClient(waOpts...)
		if err != nil {
			slog.Warn("WhatsApp lead alerts disabled", "error", err)
		} else {
			notifier.AddChannel("whatsapp", waClient, config.AlertWhatsTo)
		}
	}

	return notifier
}

// run wires the modules together and serves the API until interrupted.
func run(config Config, flags Flags) error {
	// One instance per state directory; the session database is not safe
	// for concurrent writers.
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	st, err := buildStore(flags, config.CacheSize)
	if err != nil {
		return err
	}
	defer st.Close()

	client, err := genai.NewClient(buildGenAIOptions(flags)...)
	if err != nil {
		return err
	}

	galleryResolver, err := gallery.NewResolver()
	if err != nil {
		return err
	}

	var stageResolver flow.NextStageResolver
	if *flags.directed {
		stageResolver = flow.NewDirectedResolver()
	} else {
		stageResolver = flow.NewRuleBasedResolver()
	}

	notifier := buildNotifier(config, flags)

	if config.DigestSchedule != "" {
		if !notifier.HasChannels() {
			slog.Warn("LEAD_DIGEST_SCHEDULE set but no alert channels configured, digest disabled")
		} else {
			sched := scheduler.NewScheduler()
			defer sched.Stop()
			if err := sched.AddJob(config.DigestSchedule, scheduler.LeadDigestJob(st, notifier, DigestWindow)); err != nil {
				return err
			}
			slog.Info("Lead digest scheduled", "schedule", config.DigestSchedule)
		}
	}

	advisor := flow.NewAdvisor(client, *flags.directed)
	sessions := flow.NewSessionManager(st, advisor, galleryResolver, stageResolver, notifier, *flags.directed)
	server := api.NewServer(sessions, advisor, buildAPIOptions(flags)...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx)
}
