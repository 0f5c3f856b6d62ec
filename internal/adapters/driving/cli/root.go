// Package cli implements the docqa command line.
//
// Commands reach the core through package-level driving ports. They are
// built once per invocation by the ServiceFactory installed from main, after
// the persistent flags have been parsed.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=v1.2.3".
var version = "dev"

// annotationNoServices marks commands that run without the core services.
const annotationNoServices = "docqa/no-services"

var (
	verbose   bool
	configDir string
	ephemeral bool
	envFile   string
)

// Options are the persistent flags that influence service construction.
type Options struct {
	// ConfigDir holds config.toml and the prompts directory. Empty uses the
	// docqa home.
	ConfigDir string

	// Ephemeral keeps settings and chunks in memory for this invocation.
	Ephemeral bool
}

// HealthCheck is a named connectivity check run by "docqa doctor".
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// Services holds the driving ports the commands use.
type Services struct {
	Ingest      driving.IngestService
	Search      driving.SearchService
	Questions   driving.QuestionService
	Voice       driving.VoiceService
	Collections driving.CollectionService
	Extraction  driving.ExtractionService
	Settings    driving.SettingsService

	// Health reports which optional collaborators are configured.
	Health httpapi.Health

	// Checks are run by "docqa doctor".
	Checks []HealthCheck

	// Warnings are non-fatal startup issues, printed with --verbose.
	Warnings []string

	// ConfigPath is the settings file location, empty when ephemeral.
	ConfigPath string

	// PromptDir is where prompt overrides are read from.
	PromptDir string

	// Close releases the driven adapters.
	Close func()
}

// ServiceFactory builds the services for one invocation.
type ServiceFactory func(opts Options) (*Services, error)

var serviceFactory ServiceFactory

// Driving ports used by the commands.
var (
	ingestService     driving.IngestService
	searchService     driving.SearchService
	questionService   driving.QuestionService
	voiceService      driving.VoiceService
	collectionService driving.CollectionService
	extractionService driving.ExtractionService
	settingsService   driving.SettingsService

	runtimeHealth  httpapi.Health
	healthChecks   []HealthCheck
	configPath     string
	promptDir      string
	closeServices  func()
	servicesLoaded bool
)

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about your documents",
	Long: `docqa ingests documents into a local vector store and answers questions
from them with a language model.

Documents are split into overlapping chunks, embedded and stored in named
collections. Questions are answered from the most similar chunks; when the
documents do not contain the answer docqa says so, or falls back to the
model's own knowledge if asked to.`,
	SilenceUsage:      true,
	PersistentPreRunE: initServices,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default $DOCQA_HOME or ~/.docqa)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep settings and chunks in memory only")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
}

// SetServiceFactory installs the function that builds the services.
func SetServiceFactory(f ServiceFactory) {
	serviceFactory = f
}

// SetVersion overrides the reported version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and releases the services it built.
func Execute() error {
	defer releaseServices()
	return rootCmd.Execute()
}

// initServices configures logging, loads the dotenv file and builds the
// services unless they are already set or the command does not need them.
func initServices(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("loading %s: %v", envFile, err)
		}
	}

	if servicesLoaded || ingestService != nil || cmd.Annotations[annotationNoServices] == "true" {
		return nil
	}
	if serviceFactory == nil {
		return errors.New("services not configured")
	}

	svc, err := serviceFactory(Options{ConfigDir: configDir, Ephemeral: ephemeral})
	if err != nil {
		return fmt.Errorf("starting docqa: %w", err)
	}
	for _, w := range svc.Warnings {
		logger.Debug("%s", w)
	}
	setServices(svc)
	servicesLoaded = true
	return nil
}

func setServices(svc *Services) {
	ingestService = svc.Ingest
	searchService = svc.Search
	questionService = svc.Questions
	voiceService = svc.Voice
	collectionService = svc.Collections
	extractionService = svc.Extraction
	settingsService = svc.Settings
	runtimeHealth = svc.Health
	healthChecks = svc.Checks
	configPath = svc.ConfigPath
	promptDir = svc.PromptDir
	closeServices = svc.Close
}

func releaseServices() {
	if !servicesLoaded {
		return
	}
	if closeServices != nil {
		closeServices()
	}
	setServices(&Services{})
	servicesLoaded = false
}
