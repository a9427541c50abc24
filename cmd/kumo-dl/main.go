package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/0xsi23/kumo/internal/config"
	"github.com/0xsi23/kumo/internal/download"
	"github.com/0xsi23/kumo/internal/imaging"
	"github.com/0xsi23/kumo/internal/manifest"
	"github.com/0xsi23/kumo/internal/model"
)

func main() {
	var (
		manifestFlag    = flag.String("manifest", "", "Path or URL of the download manifest (JSON)")
		outputFlag      = flag.String("output", "", "Output directory (overrides config)")
		configFlag      = flag.String("config", "", "Path to config file")
		concurrencyFlag = flag.Int("concurrency", 0, "Max concurrent downloads (overrides config)")
		noDelayFlag     = flag.Bool("no-delay", false, "Disable the jittered delay between requests")
		verboseFlag     = flag.Bool("verbose", false, "Show verbose output")
		dryRunFlag      = flag.Bool("dry-run", false, "Parse the manifest without downloading")
	)

	flag.Parse()

	src := *manifestFlag
	if src == "" && flag.NArg() > 0 {
		src = flag.Arg(0)
	}
	if src == "" {
		fmt.Println("kumo - Rate-limited comic downloader")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  kumo-dl -manifest <file-or-url> [options]")
		fmt.Println("  kumo-dl <file-or-url> [options]")
		fmt.Println()
		fmt.Println("For interactive mode, use: kumo-tui")
		fmt.Println()
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load config
	settings := config.DefaultSettings()
	if *configFlag != "" {
		var err error
		settings, err = config.Load(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// Apply flags
	if *outputFlag != "" {
		settings.DownloadsPath = *outputFlag + "/{comic}/{chapter}"
	}
	if *concurrencyFlag > 0 {
		settings.MaxConcurrent = *concurrencyFlag
	}
	if *noDelayFlag {
		settings.DisableDelay = true
	}

	// Handle interrupts
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, cancelling...")
		cancel()
	}()

	comic, err := manifest.Load(ctx, src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("🕷 kumo")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Comic: %s\n", comic.Title)

	pathCfg := settings.ToPathConfig()
	var jobs []*download.Job
	for _, ch := range comic.Chapters {
		dir := comic.ChapterDir(pathCfg, ch)
		fmt.Printf("  ▸ %s (%d pages) → %s\n", ch.Title, len(ch.Pages), dir)
		jobs = append(jobs, ch.Jobs(dir)...)
	}

	if *dryRunFlag {
		fmt.Printf("\n[Dry run - %d jobs, not downloading]\n", len(jobs))
		return
	}

	cfg := settings.ToEngineConfig()
	cfg.OnProgress = func(event download.ProgressEvent) {
		if event.Level == download.LevelVerbose && !*verboseFlag {
			return
		}

		prefix := "   "
		switch event.Level {
		case download.LevelError:
			prefix = "✗ "
		case download.LevelWarning:
			prefix = "! "
		case download.LevelSuccess:
			prefix = "✓ "
		case download.LevelInfo:
			prefix = "› "
		}

		fmt.Println(prefix + event.Message)
	}

	engine, err := download.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if settings.SaveCover && comic.HasCover() {
		downloadCover(ctx, engine, settings, comic, pathCfg)
	}

	fmt.Println("\n📥 Starting downloads...")
	fmt.Println()

	downloaded, failed := engine.DownloadBatch(ctx, jobs)
	if ctx.Err() != nil {
		fmt.Println("\nDownload cancelled.")
		os.Exit(130)
	}

	fmt.Println()
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("✨ Complete! Downloaded %d/%d pages (%.1f MB)\n",
		downloaded, len(jobs), float64(engine.Stats().Bytes)/1024/1024)
	if failed > 0 {
		fmt.Printf("   %d pages failed\n", failed)
		os.Exit(1)
	}
}

// downloadCover fetches the comic cover through the engine and applies the
// configured post-processing (resize, JPEG conversion).
func downloadCover(ctx context.Context, engine *download.Engine, settings *config.Settings, comic *model.Comic, pathCfg *model.PathConfig) {
	coverPath := comic.CoverPath(pathCfg)

	result := engine.DownloadOne(ctx, &download.Job{
		URL:      comic.CoverURL,
		DestPath: coverPath,
		Referer:  comic.URL,
	})
	if !result.Succeeded {
		fmt.Printf("! cover download failed: %v\n", result.Err())
		return
	}

	if !settings.CoverResize && !settings.ConvertCoverToJPG {
		return
	}

	data, err := os.ReadFile(coverPath)
	if err != nil {
		fmt.Printf("! cover post-processing failed: %v\n", err)
		return
	}

	svc := imaging.NewService()
	if settings.CoverResize {
		data, err = svc.Resize(data, settings.CoverMaxSize, settings.CoverMaxSize)
	} else {
		data, err = svc.ConvertToJPEG(data)
	}
	if err != nil {
		fmt.Printf("! cover post-processing failed: %v\n", err)
		return
	}

	if err := os.WriteFile(coverPath, data, 0644); err != nil {
		fmt.Printf("! cover post-processing failed: %v\n", err)
	}
}
