package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/SanteonNL/sd2q/cmd/sd2q/config"
	"github.com/SanteonNL/sd2q/cmd/sd2q/converter"
	"github.com/SanteonNL/sd2q/cmd/sd2q/fhir/narrative"
	"github.com/SanteonNL/sd2q/cmd/sd2q/fhir/profilelink"
	"github.com/SanteonNL/sd2q/cmd/sd2q/fhir/structuredefinition"
	"github.com/SanteonNL/sd2q/cmd/sd2q/output"
	"github.com/SanteonNL/sd2q/util"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "sd2q",
		Short:        "Generate FHIR Questionnaires from StructureDefinitions",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("env-file", ".env", "file with SD2Q_ settings")
	flags.String("base-url", "", "retrieval URL template for referenced profiles, with %s for the profile name")
	flags.Duration("timeout", 10*time.Second, "timeout per profile request")
	flags.String("profiles-dir", "", "directory with local StructureDefinitions, consulted before the network")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.Bool("no-color", false, "disable colored console output")

	root.AddCommand(newConvertCommand(), newLinksCommand())
	return root
}

func newConvertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <file|url>",
		Short: "Convert a StructureDefinition into a Questionnaire",
		Args:  cobra.ExactArgs(1),
		RunE:  runConvert,
	}
	cmd.Flags().String("id", "", "Questionnaire id, defaults to the profile name")
	cmd.Flags().String("title", "", "Questionnaire title, defaults to the profile name")
	cmd.Flags().Bool("stdout", false, "print the Questionnaire instead of writing it to the output directory")
	cmd.Flags().String("output", "output", "output directory")
	cmd.Flags().Int("max-depth", converter.DefaultMaxDepth, "maximum nesting of referenced profiles")
	cmd.Flags().Bool("expand-choice-types", false, "give polymorphic elements one item per type")
	cmd.Flags().Bool("check-expressions", true, "compile generated initial expressions")
	return cmd
}

func newLinksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "links <file|url>",
		Short: "Print the profile links of a StructureDefinition's narrative table",
		Args:  cobra.ExactArgs(1),
		RunE:  runLinks,
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, err
	}
	return config.Load(envFile, cmd.Flags())
}

func consoleWriter(cfg *config.Config, out io.Writer) zerolog.ConsoleWriter {
	return zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = out
		w.NoColor = cfg.NoColor
	})
}

func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	return zerolog.New(consoleWriter(cfg, out)).Level(cfg.Level()).With().Timestamp().Caller().Logger()
}

// newFetcher combines the local profiles directory with the remote client.
func newFetcher(cfg *config.Config, log zerolog.Logger) (*structuredefinition.StructureDefinitionService, error) {
	var repo *structuredefinition.StructureDefinitionRepository
	if cfg.ProfilesDir != "" {
		dir, err := util.GetAbsolutePath(cfg.ProfilesDir)
		if err != nil {
			return nil, err
		}
		repo = structuredefinition.NewStructureDefinitionRepository(log)
		if err := repo.LoadStructureDefinitions(dir); err != nil {
			return nil, err
		}
		log.Debug().Str("dir", dir).Int("profiles", repo.Len()).Msg("Loaded local profiles")
	}
	client := structuredefinition.NewClient(structuredefinition.ClientConfig{
		Timeout:  cfg.HTTPTimeout,
		RetryMax: cfg.HTTPRetryMax,
	}, log)
	return structuredefinition.NewStructureDefinitionService(repo, client, log), nil
}

// readInput reads the root document from a file path or URL.
func readInput(ctx context.Context, input string, fetcher structuredefinition.Fetcher) (*structuredefinition.Definition, error) {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		return fetcher.Fetch(ctx, input)
	}
	path, err := util.GetAbsolutePath(input)
	if err != nil {
		return nil, err
	}
	return structuredefinition.ReadFile(path)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	toStdout, _ := cmd.Flags().GetBool("stdout")

	log := newLogger(cfg, os.Stderr)
	var om *output.OutputManager
	if !toStdout {
		om, err = output.NewOutputManager(cfg.OutputDir, consoleWriter(cfg, os.Stderr), cfg.Level())
		if err != nil {
			return err
		}
		defer om.Close()
		log = om.GetLogger()
	}

	startTime := time.Now()
	fetcher, err := newFetcher(cfg, log)
	if err != nil {
		return err
	}

	definition, err := readInput(cmd.Context(), args[0], fetcher)
	if err != nil {
		log.Error().Err(err).Str("input", args[0]).Msg("Failed to read StructureDefinition")
		return err
	}

	id, _ := cmd.Flags().GetString("id")
	title, _ := cmd.Flags().GetString("title")
	if id == "" {
		id = definition.Name
	}
	if title == "" {
		title = definition.Name
	}

	svc, err := converter.NewQuestionnaireService(converter.QuestionnaireConfig{
		Log:               log,
		Fetcher:           fetcher,
		Resolver:          profilelink.NewResolver(cfg.ProfileBaseURL),
		MaxDepth:          cfg.MaxDepth,
		ExpandChoiceTypes: cfg.ExpandChoiceTypes,
		CheckExpressions:  cfg.CheckExpressions,
	})
	if err != nil {
		return err
	}

	result, err := svc.CreateQuestionnaire(cmd.Context(), definition, nil, id, title)
	if err != nil {
		log.Error().Err(err).Str("input", args[0]).Msg("Failed to create questionnaire")
		return err
	}

	if toStdout {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(result.Questionnaire)
	}

	path, err := om.WriteToJSON(result.Questionnaire, id)
	if err != nil {
		return err
	}
	log.Info().Str("file", path).Msgf("Execution time: %s", time.Since(startTime))

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d root items)\n", path, len(result.Questionnaire.Item))
	for _, invalid := range result.InvalidExpressions {
		fmt.Fprintf(cmd.OutOrStdout(), "warning: invalid initial expression %s\n", invalid)
	}
	return nil
}

func runLinks(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg, os.Stderr)

	fetcher, err := newFetcher(cfg, log)
	if err != nil {
		return err
	}
	definition, err := readInput(cmd.Context(), args[0], fetcher)
	if err != nil {
		return err
	}

	table, err := narrative.ReadTableElements(definition.Narrative)
	if err != nil {
		return err
	}
	return printLinks(cmd.OutOrStdout(), table, profilelink.NewResolver(cfg.ProfileBaseURL))
}

// printLinks writes every narrative row with its links and, when one
// resolves, the profile it points at.
func printLinks(w io.Writer, table narrative.TableElements, resolver *profilelink.Resolver) error {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		links := table[name]
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
		for _, link := range links {
			fmt.Fprintf(w, "  %s -> %s\n", link.Text, link.Href)
		}
		if url, err := resolver.Resolve(links); err == nil {
			fmt.Fprintf(w, "  profile: %s\n", url)
		}
	}
	return nil
}
