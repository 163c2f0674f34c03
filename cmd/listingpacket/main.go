package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kpauljoseph/listingpacket/internal/address"
	"github.com/kpauljoseph/listingpacket/internal/capability"
	"github.com/kpauljoseph/listingpacket/internal/config"
	"github.com/kpauljoseph/listingpacket/internal/scanner"
	"github.com/kpauljoseph/listingpacket/internal/workflow"
	"github.com/kpauljoseph/listingpacket/pkg/logger"
	"github.com/kpauljoseph/listingpacket/pkg/models"
	"github.com/kpauljoseph/listingpacket/pkg/version"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	sourceDir := flag.String("dir", "", "directory to scan for PDF, JPG and ZIP files")
	street := flag.String("street", "", "street address line")
	cityState := flag.String("city", "", "city and state line")
	fullAddress := flag.String("address", "", "full address, split into street and city/state when -street and -city are empty")
	photoPath := flag.String("photo", "", "property photo for the cover page and social posts")
	includeCover := flag.Bool("cover", false, "prepend a generated cover page")
	createPosts := flag.Bool("social", false, "create social media posts")
	socialOnly := flag.Bool("social-only", false, "create social media posts without a packet")
	compress := flag.Bool("compress", true, "compress the packet")
	outputDir := flag.String("out", "", "output directory (overrides config)")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	debug := flag.Bool("debug", false, "enable debug mode with trace logging")
	showVersion := flag.Bool("version", false, "print version information")
	flag.Parse()

	if *showVersion {
		fmt.Print(version.GetDetailedVersionInfo())
		return
	}

	log := logger.New(logger.WithPrefix("[listingpacket] "))
	log.SetVerbose(*verbose || *debug)
	if *debug {
		log.SetLevel(logger.LevelTrace)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(*configPath, log)
	if err != nil {
		log.Fatal("Error loading config: %v", err)
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "cover":
			cfg.Features.IncludeCover = *includeCover
		case "social":
			cfg.Features.CreateSocialPosts = *createPosts
		case "compress":
			cfg.Features.Compress = *compress
		}
	})

	if *street == "" && *cityState == "" && *fullAddress != "" {
		*street, *cityState = address.Parse(*fullAddress)
		log.Debug("Parsed address: street=%q city/state=%q", *street, *cityState)
	}
	if *street != "" || *cityState != "" {
		log.Info("Property: %s", address.Join(*street, *cityState))
	}

	var photo []byte
	if *photoPath != "" {
		photo, err = os.ReadFile(*photoPath)
		if err != nil {
			log.Fatal("Error reading photo: %v", err)
		}
	}

	caps := capability.Detect(cfg, log)
	service := workflow.NewService(cfg, caps, log)
	start := time.Now()

	var res *workflow.Result
	if *socialOnly {
		res, err = service.SocialOnly(ctx, workflow.SocialRequest{Photo: photo, Street: *street, CityState: *cityState})
		if err != nil {
			log.Fatal("Error creating social posts: %v", err)
		}
	} else {
		files, err := collectSources(ctx, scanner.New(log), *sourceDir, flag.Args())
		if err != nil {
			log.Fatal("Error finding source files: %v", err)
		}
		log.Info("Found %d files to combine", len(files))

		res, err = service.Export(ctx, workflow.Request{
			Files:        files,
			Photo:        photo,
			Street:       *street,
			CityState:    *cityState,
			IncludeCover: cfg.Features.IncludeCover,
			CreatePosts:  cfg.Features.CreateSocialPosts,
			Compress:     cfg.Features.Compress,
		})
		if err != nil {
			log.Fatal("Error creating packet: %v", err)
		}
		printReport(log, res.Intake)
	}

	paths, err := service.Save(cfg.OutputDir, res)
	if err != nil {
		log.Fatal("Error saving results: %v", err)
	}
	for _, e := range res.PostErrors {
		log.Warn("%v", e)
	}

	log.Info("Processing complete in %s:", time.Since(start).Round(time.Millisecond))
	for _, line := range strings.Split(res.Summary, "\n") {
		log.Info("%s", line)
	}
	for _, p := range paths {
		log.Info("- Saved %s", p)
	}
}

// loadConfig falls back to defaults when the default config file is absent.
func loadConfig(path string, log *logger.Logger) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) && !flagSet("config") {
		log.Debug("No config file at %s, using defaults", path)
		return config.Default(), nil
	}
	return cfg, err
}

func collectSources(ctx context.Context, s *scanner.DirectoryScanner, dir string, args []string) ([]models.SourceFile, error) {
	var files []models.SourceFile
	if dir != "" {
		found, err := s.FindSources(ctx, dir)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	if len(args) > 0 {
		listed, err := s.ReadFiles(ctx, args)
		if err != nil {
			return nil, err
		}
		files = append(files, listed...)
	}
	if len(files) == 0 {
		return nil, errors.New("no input files: pass files as arguments or use -dir")
	}
	return files, nil
}

func printReport(log *logger.Logger, report []models.IntakeEntry) {
	for _, e := range report {
		if e.Detail != "" {
			log.Info("- %s: %s (%s)", e.Name, e.Status, e.Detail)
		} else {
			log.Info("- %s: %s", e.Name, e.Status)
		}
	}
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
