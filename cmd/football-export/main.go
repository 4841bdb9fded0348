package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/config"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/dashboard"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/export"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/logging"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/providers/apifootball"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/topics"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

// options are the parsed command-line flags
type options struct {
	configPath  string
	envFile     string
	envFileSet  bool
	topic       string
	filter      string
	format      string
	out         string
	preview     bool
	previewRows int
	listOptions bool
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (*options, error) {
	var opts options

	flagSet := pflag.NewFlagSet("football-export", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flagSet.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flagSet.StringVarP(&opts.topic, "topic", "t", "", "topic: timezone, countries, leagues or teams")
	flagSet.StringVarP(&opts.filter, "filter", "f", "", "sub-filter: country name for leagues, league id for teams")
	flagSet.StringVar(&opts.format, "format", "csv", "export format: csv, xlsx or pdf")
	flagSet.StringVarP(&opts.out, "out", "o", ".", "output directory")
	flagSet.BoolVar(&opts.preview, "preview", false, "print the table to stdout instead of writing a file")
	flagSet.IntVar(&opts.previewRows, "preview-rows", 20, "rows shown by --preview (0 = all)")
	flagSet.BoolVar(&opts.listOptions, "list-options", false, "print the sub-filter options for --topic and exit")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if opts.topic == "" {
		return nil, errors.New("--topic is required")
	}
	opts.envFileSet = flagSet.Changed("env-file")
	return &opts, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	// a missing .env is normal outside development
	if err := godotenv.Load(opts.envFile); err != nil && opts.envFileSet {
		return fmt.Errorf("loading %s: %w", opts.envFile, err)
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := logging.Setup(cfg.Log); err != nil {
		return err
	}

	topic, err := models.ParseTopic(opts.topic)
	if err != nil {
		return err
	}

	svc := dashboard.NewService(topics.New(cfg.Upstream.Season), apifootball.New(cfg.Upstream))

	if opts.listOptions {
		subOptions, err := svc.GetSubOptions(ctx, topic)
		if err != nil {
			return err
		}
		renderOptions(stdout, subOptions)
		return nil
	}

	result, err := svc.LoadTable(ctx, topic, opts.filter)
	if err != nil {
		return err
	}
	log.Info().Str("api_call", result.APICall).Int("rows", result.Table.Len()).Msg("table loaded")

	if opts.preview {
		renderPreview(stdout, result.Table, opts.previewRows)
		return nil
	}

	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	artifact, err := svc.ExportAs(format, result.Table)
	if errors.Is(err, export.ErrEmptyTable) {
		fmt.Fprintln(stdout, "no rows to export")
		return nil
	}
	if err != nil {
		return err
	}

	path, err := writeArtifact(opts.out, artifact)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s (%d rows) from %s\n", path, result.Table.Len(), result.APICall)
	return nil
}

func writeArtifact(dir string, artifact *export.Artifact) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, artifact.FileName)
	if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// renderPreview prints up to limit rows as a text table
func renderPreview(w io.Writer, t *models.Table, limit int) {
	if t.IsEmpty() {
		fmt.Fprintln(w, "no rows")
		return
	}

	tw := tablewriter.NewWriter(w)
	tw.SetHeader(t.Columns)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)

	shown := t.Len()
	if limit > 0 && limit < shown {
		shown = limit
	}
	for _, row := range t.Rows[:shown] {
		line := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			line[i] = models.CellString(row[col])
		}
		tw.Append(line)
	}
	tw.Render()

	if shown < t.Len() {
		fmt.Fprintf(w, "... %d more rows\n", t.Len()-shown)
	}
}

func renderOptions(w io.Writer, opts []models.SubFilterOption) {
	if len(opts) == 0 {
		fmt.Fprintln(w, "topic has no sub-filter")
		return
	}

	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"value", "label"})
	tw.SetAutoFormatHeaders(false)
	for _, o := range opts {
		tw.Append([]string{o.Value, o.Label})
	}
	tw.Render()
}
