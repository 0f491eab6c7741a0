package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TobiSchelling/veritas/internal/analysis"
	"github.com/TobiSchelling/veritas/internal/analyzer"
	"github.com/TobiSchelling/veritas/internal/config"
	"github.com/TobiSchelling/veritas/internal/database"
	"github.com/TobiSchelling/veritas/internal/pipeline"
	"github.com/TobiSchelling/veritas/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     = zap.NewNop()
)

func main() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "veritas",
	Short:         "Credibility analysis for text, web pages and documents",
	Long:          "Veritas asks a language model to fact-check, verify sources and detect bias and manipulation, then combines the findings into one credibility score.",
	Version:       version,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		switch {
		case err == nil:
			if cfg, err = config.Load(path); err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
		case configPath != "":
			return err
		default:
			cfg = config.Default()
			config.LoadDotEnv()
		}

		l, err := newLogger(cfg.Logging.Level, verbose)
		if err != nil {
			return err
		}
		logger = l
		if path != "" {
			logger.Debug("loaded config", zap.String("path", path))
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("veritas", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/veritas/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Printf("Set %s in your environment or in a .env file next to it.\n", config.Default().Gemini.APIKeyEnv)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and report history status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ep := cfg.Endpoints()
		fmt.Println("Model:")
		fmt.Printf("  API key (%s): %s\n", cfg.Gemini.APIKeyEnv, yesNo(ep.APIKey != ""))
		fmt.Printf("  Primary endpoints: %d\n", len(ep.Primary))
		fmt.Printf("  Secondary endpoints: %d\n", len(ep.Secondary))
		fmt.Printf("  Timeout: %s\n", ep.Timeout)

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Println("\nReports:")
		fmt.Printf("  Database: %s\n", db.Path())
		fmt.Printf("  Total: %d\n", stats.Reports)
		if stats.Reports > 0 {
			fmt.Printf("  Average score: %.1f\n", stats.AverageScore)
			for _, level := range []string{"High Credibility", "Moderate Credibility", "Low Credibility", "Very Low Credibility"} {
				fmt.Printf("  %s: %d\n", level, stats.ByLevel[level])
			}
		}
		return nil
	},
}

// --- analyze command ---

var (
	analyzeFile  string
	analyzeURL   string
	analyzeTypes []string
	analyzeJSON  bool
	noSave       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Analyze text, a web page or a document",
	Long: "Analyze the given text, the page at --url or the document at --file.\n" +
		"With no text argument and no flags, text is read from stdin.",
	RunE: func(cmd *cobra.Command, args []string) error {
		types, err := analysis.ParseTypes(splitTypes(analyzeTypes))
		if err != nil {
			return err
		}
		src, err := analyzeSource(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		src.Types = types

		var db *database.DB
		if !noSave {
			if db, err = openDB(); err != nil {
				return err
			}
			defer db.Close()
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		pipe := pipeline.New(cfg, db, logger)
		result, err := pipe.Run(ctx, src)
		if !analyzeJSON || err != nil {
			printSteps(result.Steps)
		}
		if err != nil {
			return err
		}

		if analyzeJSON {
			return writeJSON(os.Stdout, result.Report)
		}
		printReport(result.Report)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "Document to analyze (txt, csv, html, pdf)")
	analyzeCmd.Flags().StringVarP(&analyzeURL, "url", "u", "", "Web page or feed to analyze")
	analyzeCmd.Flags().StringSliceVarP(&analyzeTypes, "types", "t", nil, "Analysis types (comma-separated); default depends on the source")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the report as JSON")
	analyzeCmd.Flags().BoolVar(&noSave, "no-save", false, "Do not store the report in the history")
	analyzeCmd.MarkFlagsMutuallyExclusive("file", "url")
}

func analyzeSource(stdin io.Reader, args []string) (pipeline.Source, error) {
	switch {
	case analyzeURL != "":
		if len(args) > 0 {
			return pipeline.Source{}, errors.New("text arguments cannot be combined with --url")
		}
		return pipeline.Source{Kind: database.SourceURL, URL: analyzeURL}, nil

	case analyzeFile != "":
		if len(args) > 0 {
			return pipeline.Source{}, errors.New("text arguments cannot be combined with --file")
		}
		data, err := os.ReadFile(analyzeFile)
		if err != nil {
			return pipeline.Source{}, fmt.Errorf("reading %s: %w", analyzeFile, err)
		}
		return pipeline.Source{
			Kind:     database.SourceFile,
			FileName: filepath.Base(analyzeFile),
			Data:     data,
		}, nil

	case len(args) > 0:
		return pipeline.Source{Kind: database.SourceText, Text: strings.Join(args, " ")}, nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return pipeline.Source{}, fmt.Errorf("reading stdin: %w", err)
	}
	return pipeline.Source{Kind: database.SourceText, Text: string(data)}, nil
}

func splitTypes(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// --- probe command ---

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check that the model endpoints answer",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		res := pipeline.New(cfg, nil, logger).Analyzer().Probe(ctx)
		fmt.Println(res.Message)
		if !res.Success {
			return errors.New("probe failed")
		}
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(pipeline.New(cfg, db, logger), cfg.Server.RequestTimeout, logger.Named("http"))
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(ctx, srv, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

// --- history command ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse saved reports",
}

var historyLimit int

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved reports, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		reports, err := db.ListReports(historyLimit)
		if err != nil {
			return err
		}
		if len(reports) == 0 {
			fmt.Println("No saved reports. Analyze something with: veritas analyze")
			return nil
		}

		for _, r := range reports {
			ref := r.SourceRef
			if ref == "" {
				ref = truncate(r.Preview, 50)
			}
			fmt.Printf("  %s  %s  %3d  %-20s  %-4s  %s\n",
				r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.OverallScore, r.CredibilityLevel, r.SourceKind, ref)
		}
		return nil
	},
}

var historyShowJSON bool

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a saved report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stored, err := db.GetReport(args[0])
		if err != nil {
			return err
		}
		if stored == nil {
			return fmt.Errorf("report %s not found", args[0])
		}
		if historyShowJSON {
			return writeJSON(os.Stdout, stored.Report)
		}
		if stored.SourceRef != "" {
			fmt.Printf("Source: %s (%s)\n", stored.SourceRef, stored.SourceKind)
		}
		printReport(stored.Report)
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a saved report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		deleted, err := db.DeleteReport(args[0])
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("report %s not found", args[0])
		}
		fmt.Printf("Deleted report %s\n", args[0])
		return nil
	},
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", database.DefaultListLimit, "Maximum number of reports")
	historyShowCmd.Flags().BoolVar(&historyShowJSON, "json", false, "Print the report as JSON")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}

// --- output ---

func printSteps(steps []pipeline.StepResult) {
	for i, step := range steps {
		fmt.Printf("Step %d: %s\n", i+1, step.Name)
		if step.Err != nil {
			fmt.Printf("  Error: %v\n", step.Err)
		} else {
			fmt.Printf("  %s\n", step.Summary)
		}
	}
	fmt.Println()
}

func printReport(r *analyzer.Report) {
	fmt.Printf("Overall score: %d/100 (%s)\n", r.OverallScore, r.CredibilityLevel)
	if r.URLInfo != nil {
		fmt.Printf("Page: %s\n  %s, %d words\n", r.URLInfo.Title, r.URLInfo.Source, r.URLInfo.WordCount)
	}
	if r.FileInfo != nil {
		fmt.Printf("File: %s (%s, %d words)\n", r.FileInfo.FileName, r.FileInfo.FileType, r.FileInfo.WordCount)
	}

	fmt.Println("\nAnalyses:")
	for _, t := range analysis.AllTypes() {
		res, ok := r.AnalysisResults[t]
		if !ok {
			continue
		}
		score := "n/a"
		if s := res.PrimaryScore(); s.Valid {
			score = fmt.Sprintf("%.0f", s.Value)
		}
		line := fmt.Sprintf("  %-24s %5s", t, score)
		if st := r.AnalysisStatus[t]; !st.Success {
			line += "  (fallback: " + truncate(st.Error, 60) + ")"
		}
		fmt.Println(line)
	}
	fmt.Printf("\nReport %s, %s\n", r.ID, r.Timestamp.Local().Format("2006-01-02 15:04:05"))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	r := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}

func yesNo(b bool) string {
	if b {
		return "set"
	}
	return "missing"
}

func openDB() (*database.DB, error) {
	return database.Open(cfg.DBPath(), logger.Named("db"))
}
