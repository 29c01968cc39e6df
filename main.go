package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ycmflags/internal/config"
	"ycmflags/internal/flags"
	"ycmflags/internal/logging"
	"ycmflags/internal/model"
	"ycmflags/internal/tui"
	"ycmflags/internal/web"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/phuslu/log"
	"github.com/spf13/pflag"
	"github.com/tcnksm/go-latest"
)

func checkUpdate(currentVer string) {
	githubTag := &latest.GithubTag{
		Owner:      "abulka",
		Repository: "ycmflags",
	}

	res, err := latest.Check(githubTag, currentVer)
	if err != nil {
		return // Silently fail
	}

	if res.Outdated {
		fmt.Printf("\n✨ A new version is available: %s (you have %s)\n", res.Current, currentVer)
		fmt.Println("👉 Download it from https://github.com/abulka/ycmflags/releases")
	} else if pflag.Lookup("update").Changed {
		fmt.Printf("✅ You are using the latest version: %s\n", currentVer)
	}
}

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ycmflags [options] [FILE]\n\n")
		fmt.Fprintf(os.Stderr, "ycmflags returns the compiler flags a code-completion engine should use for FILE.\n")
		fmt.Fprintf(os.Stderr, "Flags come from compile_commands.json when a database folder is configured,\n")
		fmt.Fprintf(os.Stderr, "otherwise from the static lists in ycmflags.toml. Relative paths are made absolute.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  ycmflags src/main.cpp           # Print {\"flags\": [...], \"do_cache\": true}\n")
		fmt.Fprintf(os.Stderr, "  ycmflags -r src/main.cpp        # Print diagnostic report\n")
		fmt.Fprintf(os.Stderr, "  ycmflags -r -o r.txt main.cpp   # Save report to file\n")
		fmt.Fprintf(os.Stderr, "  ycmflags --db build --web       # Serve flags from build/compile_commands.json\n")
		fmt.Fprintf(os.Stderr, "  ycmflags                        # Start TUI mode\n")
	}

	jsonFlag := pflag.BoolP("json", "j", false, "Print the flags for FILE as JSON (default when FILE is given)")
	reportFlag := pflag.BoolP("report", "r", false, "Generate a diagnostic report for FILE")
	outputFlag := pflag.StringP("output", "o", "", "Save report to the specified file (combined with --report)")
	verboseFlag := pflag.BoolP("verbose", "v", false, "Include flag kinds and original tokens in the report")
	webFlag := pflag.BoolP("web", "w", false, "Start Web Mode on the configured port (default 8080)")
	tuiFlag := pflag.BoolP("tui", "t", false, "Start TUI mode, optionally opening FILE")
	configFlag := pflag.StringP("config", "c", "", "Path to ycmflags.toml")
	dbFlag := pflag.StringP("db", "d", "", "Folder containing compile_commands.json (overrides config)")
	logLevelFlag := pflag.String("log-level", "", "Log level: debug, info, warn, error")
	versionFlag := pflag.BoolP("version", "V", false, "Print version information")
	updateFlag := pflag.BoolP("update", "u", false, "Check for latest version")
	helpFlag := pflag.BoolP("help", "h", false, "Show this help message")
	pflag.Parse()

	if *helpFlag {
		pflag.Usage()
		return
	}

	if *versionFlag {
		fmt.Printf("ycmflags version %s\n", model.Version)
		return
	}

	if *updateFlag {
		checkUpdate(model.Version)
		return
	}

	cfg, err := config.Load(*configFlag, config.Overrides{
		DatabaseDir: *dbFlag,
		LogLevel:    *logLevelFlag,
	})
	if err != nil {
		fail(err)
	}
	logger := logging.New(cfg.Logging.Level, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resolver, err := flags.Open(ctx, cfg, logger)
	if err != nil {
		fail(err)
	}

	file := pflag.Arg(0)
	if file != "" {
		file = model.AbsPath(file)
	}

	if *webFlag {
		runWebMode(ctx, cfg, resolver, logger)
		return
	}

	if file == "" || *tuiFlag {
		runTuiMode(resolver, file, cfg.Server.CacheSize)
		return
	}

	if *reportFlag && *jsonFlag {
		fail(fmt.Errorf("--report and --json are mutually exclusive"))
	}

	if *reportFlag {
		runReportMode(resolver, file, *outputFlag, *verboseFlag)
		return
	}

	runJsonMode(resolver, file)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runReportMode(resolver *flags.Resolver, file, outputFile string, verbose bool) {
	analysis := flags.Analyze(resolver.Resolve(file))
	report := flags.GenerateReport(analysis, verbose)

	if outputFile != "" {
		err := os.WriteFile(outputFile, []byte(report), 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report to %s: %v\n", outputFile, err)
			os.Exit(1)
		}
		fmt.Printf("Report saved to %s\n", outputFile)
	} else {
		fmt.Println(report)
	}
}

func runJsonMode(resolver *flags.Resolver, file string) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resolver.ResolveFlags(file)); err != nil {
		fail(err)
	}
}

func runWebMode(ctx context.Context, cfg *config.Config, resolver *flags.Resolver, logger *log.Logger) {
	cache, err := flags.NewCachingResolver(resolver, cfg.Server.CacheSize)
	if err != nil {
		fail(err)
	}
	if err := web.StartServer(ctx, cfg, cache, logger); err != nil {
		fail(err)
	}
}

func runTuiMode(resolver *flags.Resolver, file string, cacheSize int) {
	cache, err := flags.NewCachingResolver(resolver, cacheSize)
	if err != nil {
		fail(err)
	}
	m := tui.InitialModel(cache, file)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
