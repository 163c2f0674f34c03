package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/kpauljoseph/listingpacket/internal/address"
	"github.com/kpauljoseph/listingpacket/internal/capability"
	"github.com/kpauljoseph/listingpacket/internal/config"
	"github.com/kpauljoseph/listingpacket/internal/scanner"
	"github.com/kpauljoseph/listingpacket/internal/workflow"
	"github.com/kpauljoseph/listingpacket/pkg/logger"
	"github.com/kpauljoseph/listingpacket/pkg/models"
	"github.com/kpauljoseph/listingpacket/pkg/updater"
	"github.com/kpauljoseph/listingpacket/pkg/version"
)

type ListingPacketGUI struct {
	// Core components
	window        fyne.Window
	log           *logger.Logger
	cfg           *config.Config
	caps          capability.Set
	exporter      workflow.Exporter
	scanner       *scanner.DirectoryScanner
	mutex         sync.Mutex
	logFileName   string
	updateChecker *updater.Checker

	// Selection
	files     []models.SourceFile
	photo     []byte
	photoName string

	// UI components
	filesLabel     *widget.Label
	photoLabel     *widget.Label
	streetEntry    *widget.Entry
	cityEntry      *widget.Entry
	addressEntry   *widget.Entry
	coverCheck     *widget.Check
	postsCheck     *widget.Check
	compressCheck  *widget.Check
	outputDirEntry *widget.Entry
	verboseCheck   *widget.Check
	processBtn     *widget.Button
	socialBtn      *widget.Button
	progress       *widget.ProgressBarInfinite
	status         *widget.Label
}

func NewListingPacketGUI(cfg *config.Config) *ListingPacketGUI {
	log, logFileName, err := setupLogging()
	if err != nil {
		log = logger.New(logger.WithPrefix("[listingpacket-gui] "))
		fmt.Printf("Warning: Failed to set up logging: %v\n", err)
	}

	listingApp := app.New()
	window := listingApp.NewWindow(version.AppName)

	caps := capability.Detect(cfg, log)

	gui := &ListingPacketGUI{
		window:      window,
		log:         log,
		cfg:         cfg,
		caps:        caps,
		exporter:    workflow.NewService(cfg, caps, log),
		scanner:     scanner.New(log),
		logFileName: logFileName,
	}
	if cfg.Updates.Enabled {
		gui.updateChecker = updater.NewChecker(cfg.Updates.URL, log)
	}
	return gui
}

func (gui *ListingPacketGUI) setupUI() {
	mainMenu := fyne.NewMainMenu(
		fyne.NewMenu("Help",
			fyne.NewMenuItem("About", func() {
				dialog.ShowInformation(
					"About "+version.AppName,
					version.GetDetailedVersionInfo(),
					gui.window,
				)
			}),
		),
	)
	gui.window.SetMainMenu(mainMenu)

	// Documents
	gui.filesLabel = widget.NewLabel("No files selected")
	gui.filesLabel.Wrapping = fyne.TextWrapWord

	addFilesBtn := widget.NewButton("Add Files", gui.handleAddFile)
	addFilesBtn.Importance = widget.HighImportance
	addFolderBtn := widget.NewButton("Add Folder", gui.handleAddFolder)
	clearBtn := widget.NewButton("Clear", func() {
		gui.files = nil
		gui.refreshFiles()
	})

	filesInfo := gui.createInfoSection("Listing Documents",
		"Select the PDF, JPG or ZIP files to combine, in the order they should appear.\n\n"+
			"• PDF files are added as they are.\n"+
			"• JPG images become one page each, sized to the image.\n"+
			"• ZIP archives contribute every PDF inside them, in archive order.\n\n"+
			"Add Folder scans a folder and its subfolders in alphabetical order.",
		container.NewVBox(container.NewHBox(addFilesBtn, addFolderBtn, clearBtn), gui.filesLabel))

	// Address
	gui.streetEntry = widget.NewEntry()
	gui.streetEntry.SetPlaceHolder("123 Main Street")
	gui.cityEntry = widget.NewEntry()
	gui.cityEntry.SetPlaceHolder("Woodstock, VT")
	gui.addressEntry = widget.NewEntry()
	gui.addressEntry.SetPlaceHolder("Paste a full address to split it")
	splitBtn := widget.NewButton("Split", func() {
		street, cityState := address.Parse(gui.addressEntry.Text)
		gui.streetEntry.SetText(street)
		gui.cityEntry.SetText(cityState)
	})

	addressInfo := gui.createInfoSection("Property Address",
		"The street address and city/state appear on the cover page and social posts, "+
			"and name the output files.\n\n"+
			"Both lines are required when a cover page or social posts are created with a photo.",
		container.NewVBox(
			container.NewBorder(nil, nil, widget.NewLabel("Street:"), nil, gui.streetEntry),
			container.NewBorder(nil, nil, widget.NewLabel("City, State:"), nil, gui.cityEntry),
			container.NewBorder(nil, nil, nil, splitBtn, gui.addressEntry),
		))

	// Photo and options
	gui.photoLabel = widget.NewLabel("No photo selected")
	photoBtn := widget.NewButton("Choose Photo", gui.handleChoosePhoto)

	gui.coverCheck = widget.NewCheck("Include Custom Cover Page", nil)
	gui.coverCheck.SetChecked(gui.cfg.Features.IncludeCover)
	if !gui.caps.Cover() {
		gui.coverCheck.Disable()
	}
	gui.postsCheck = widget.NewCheck("Create Social Posts (New Listing, Under Contract, Sold)", nil)
	gui.postsCheck.SetChecked(gui.cfg.Features.CreateSocialPosts)
	if !gui.caps.Social() {
		gui.postsCheck.Disable()
	}
	gui.compressCheck = widget.NewCheck("Compress Packet", nil)
	gui.compressCheck.SetChecked(gui.cfg.Features.Compress)

	optionsInfo := gui.createInfoSection("Cover Page & Social Posts",
		"The property photo is used for the cover page and the three social posts.\n\n"+
			"Options that need missing templates or libraries are disabled.",
		container.NewVBox(
			container.NewBorder(nil, nil, nil, photoBtn, gui.photoLabel),
			gui.coverCheck, gui.postsCheck, gui.compressCheck,
		))

	// Output
	gui.outputDirEntry = widget.NewEntry()
	gui.outputDirEntry.SetText(gui.cfg.OutputDir)
	browseOutputDirBtn := widget.NewButton("Browse", func() {
		dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil {
				dialog.ShowError(err, gui.window)
				return
			}
			if uri == nil {
				return
			}
			gui.outputDirEntry.SetText(uri.Path())
		}, gui.window)
	})

	gui.verboseCheck = widget.NewCheck("Verbose Logging", func(checked bool) {
		gui.log.SetVerbose(checked)
	})

	outputInfo := gui.createInfoSection("Output",
		"The packet and posts are saved here. Defaults to your Downloads folder.",
		container.NewVBox(container.NewBorder(nil, nil, nil, browseOutputDirBtn, gui.outputDirEntry), gui.verboseCheck))

	gui.progress = widget.NewProgressBarInfinite()
	gui.progress.Hide()
	gui.status = widget.NewLabel("Ready to process files...")

	gui.processBtn = widget.NewButton("Create Listing Packet", gui.handleProcess)
	gui.processBtn.Importance = widget.HighImportance
	gui.socialBtn = widget.NewButton("Create Social Posts Only", gui.handleSocialOnly)
	if !gui.caps.Social() {
		gui.socialBtn.Disable()
	}

	content := container.NewVBox(
		gui.createHeader(),
		filesInfo,
		addressInfo,
		optionsInfo,
		outputInfo,
		container.NewGridWithColumns(2, gui.processBtn, gui.socialBtn),
		gui.progress,
		gui.status,
	)

	gui.window.SetContent(container.NewPadded(container.NewScroll(content)))
	gui.window.Resize(fyne.NewSize(700, 850))
	gui.window.SetFixedSize(false)
}

func (gui *ListingPacketGUI) createHeader() fyne.CanvasObject {
	titleLabel := widget.NewLabelWithStyle(version.AppName, fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	subtitle := widget.NewLabelWithStyle("Professional Real Estate Listing Packet Creator", fyne.TextAlignCenter, fyne.TextStyle{})
	versionLabel := widget.NewLabelWithStyle("Version: "+version.Version, fyne.TextAlignCenter, fyne.TextStyle{Italic: true})
	return container.NewCenter(container.NewVBox(titleLabel, subtitle, versionLabel))
}

func (gui *ListingPacketGUI) createInfoSection(title, tooltip string, content fyne.CanvasObject) *widget.Card {
	infoBtn := widget.NewButtonWithIcon("", theme.InfoIcon(), nil)
	infoBtn.Importance = widget.LowImportance

	helpText := widget.NewRichTextWithText(tooltip)
	helpText.Wrapping = fyne.TextWrapWord

	infoBtn.OnTapped = func() {
		d := dialog.NewCustom(title+" - Help", "Close", helpText, gui.window)
		d.Resize(fyne.NewSize(500, 0))
		d.Show()
	}

	header := container.NewHBox(
		widget.NewLabelWithStyle(title, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		infoBtn,
	)
	return widget.NewCard("", "", container.NewVBox(header, content))
}

func (gui *ListingPacketGUI) handleAddFile() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, gui.window)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		data, err := io.ReadAll(reader)
		if err != nil {
			dialog.ShowError(fmt.Errorf("failed to read %s: %w", reader.URI().Name(), err), gui.window)
			return
		}
		gui.files = append(gui.files, models.SourceFile{Name: reader.URI().Name(), Data: data})
		gui.refreshFiles()
	}, gui.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".pdf", ".jpg", ".jpeg", ".zip"}))
	d.Show()
}

func (gui *ListingPacketGUI) handleAddFolder() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			dialog.ShowError(err, gui.window)
			return
		}
		if uri == nil {
			return
		}
		found, err := gui.scanner.FindSources(context.Background(), uri.Path())
		if err != nil {
			dialog.ShowError(err, gui.window)
			return
		}
		gui.files = append(gui.files, found...)
		gui.refreshFiles()
	}, gui.window)
}

func (gui *ListingPacketGUI) handleChoosePhoto() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, gui.window)
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		data, err := io.ReadAll(reader)
		if err != nil {
			dialog.ShowError(fmt.Errorf("failed to read photo: %w", err), gui.window)
			return
		}
		gui.photo = data
		gui.photoName = reader.URI().Name()
		gui.photoLabel.SetText(gui.photoName)
	}, gui.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".jpg", ".jpeg", ".png"}))
	d.Show()
}

func (gui *ListingPacketGUI) refreshFiles() {
	if len(gui.files) == 0 {
		gui.filesLabel.SetText("No files selected")
		return
	}
	lines := make([]string, 0, len(gui.files))
	for _, f := range gui.files {
		lines = append(lines, fmt.Sprintf("• %s (%.1f KB)", f.Name, float64(len(f.Data))/1024))
	}
	gui.filesLabel.SetText(strings.Join(lines, "\n"))
}

func (gui *ListingPacketGUI) handleProcess() {
	if len(gui.files) == 0 {
		dialog.ShowError(errors.New("please add at least one PDF, JPG or ZIP file"), gui.window)
		return
	}

	req := workflow.Request{
		Files:        gui.files,
		Photo:        gui.photo,
		Street:       strings.TrimSpace(gui.streetEntry.Text),
		CityState:    strings.TrimSpace(gui.cityEntry.Text),
		IncludeCover: gui.coverCheck.Checked,
		CreatePosts:  gui.postsCheck.Checked,
		Compress:     gui.compressCheck.Checked,
	}
	if err := workflow.Validate(req); err != nil {
		dialog.ShowError(err, gui.window)
		return
	}

	gui.startWork("Processing files...")
	go gui.run(func(ctx context.Context) (*workflow.Result, error) {
		return gui.exporter.Export(ctx, req)
	})
}

func (gui *ListingPacketGUI) handleSocialOnly() {
	req := workflow.SocialRequest{
		Photo:     gui.photo,
		Street:    strings.TrimSpace(gui.streetEntry.Text),
		CityState: strings.TrimSpace(gui.cityEntry.Text),
	}
	gui.startWork("Creating social posts...")
	go gui.run(func(ctx context.Context) (*workflow.Result, error) {
		return gui.exporter.SocialOnly(ctx, req)
	})
}

func (gui *ListingPacketGUI) startWork(message string) {
	gui.processBtn.Disable()
	gui.socialBtn.Disable()
	gui.progress.Show()
	gui.updateStatus(message)
}

func (gui *ListingPacketGUI) run(work func(ctx context.Context) (*workflow.Result, error)) {
	defer func() {
		gui.mutex.Lock()
		gui.progress.Hide()
		gui.processBtn.Enable()
		if gui.caps.Social() {
			gui.socialBtn.Enable()
		}
		gui.mutex.Unlock()
	}()

	start := time.Now()
	res, err := work(context.Background())
	if err != nil {
		gui.showError(err)
		return
	}

	outputDir := gui.outputDirEntry.Text
	if outputDir == "" {
		outputDir = gui.cfg.OutputDir
	}
	paths, err := gui.exporter.Save(outputDir, res)
	if err != nil {
		gui.showError(err)
		return
	}
	gui.showCompletionDialog(res, paths, outputDir, time.Since(start))
}

func (gui *ListingPacketGUI) showError(err error) {
	gui.mutex.Lock()
	defer gui.mutex.Unlock()

	gui.log.Warn("Processing failed: %v", err)
	dialog.ShowError(err, gui.window)
	gui.status.SetText("Error occurred during processing")
}

func (gui *ListingPacketGUI) updateStatus(message string) {
	gui.mutex.Lock()
	defer gui.mutex.Unlock()
	gui.status.SetText(message)
}

func (gui *ListingPacketGUI) showCompletionDialog(res *workflow.Result, paths []string, outputDir string, took time.Duration) {
	gui.mutex.Lock()
	defer gui.mutex.Unlock()

	gui.log.Info("Processing complete in %v", took.Round(time.Millisecond))
	for _, e := range res.Intake {
		gui.log.Info("- %s: %s %s", e.Name, e.Status, e.Detail)
	}
	for _, e := range res.PostErrors {
		gui.log.Warn("%v", e)
	}
	for _, p := range paths {
		gui.log.Info("- Saved %s", p)
	}

	message := fmt.Sprintf("%s\n\nSaved %d files to: %s\nTime Taken: %v\n\nLog file saved to: %s",
		res.Summary, len(paths), outputDir, took.Round(time.Millisecond), gui.logFileName)

	txtBound := binding.NewString()
	txtBound.Set(message)

	buttonContainer := container.NewHBox(
		widget.NewButton("Open Output Folder", func() {
			if err := openPath(outputDir); err != nil {
				dialog.ShowError(fmt.Errorf("failed to open output folder: %v", err), gui.window)
			}
		}),
		widget.NewButton("Open Log File", func() {
			if err := openPath(gui.logFileName); err != nil {
				dialog.ShowError(fmt.Errorf("failed to open log file: %v", err), gui.window)
			}
		}),
		layout.NewSpacer(),
		widget.NewButtonWithIcon("Copy Details", theme.ContentCopyIcon(), func() {
			if content, err := txtBound.Get(); err == nil {
				gui.window.Clipboard().SetContent(content)
			}
		}),
	)

	customDialog := dialog.NewCustom("Files ready!", "Close",
		container.NewVBox(widget.NewLabel(message), buttonContainer), gui.window)
	customDialog.Resize(fyne.NewSize(500, 0))
	customDialog.Show()
	gui.status.SetText("Ready to process files...")
}

func setupLogging() (*logger.Logger, string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	logsDir := filepath.Join(homeDir, "listingpacket-logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create logs directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logFileName := filepath.Join(logsDir, fmt.Sprintf("listingpacket_%s.log", timestamp))

	logFile, err := os.Create(logFileName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create log file: %w", err)
	}

	log := logger.New(
		logger.WithPrefix("[listingpacket-gui] "),
		logger.WithOutput(io.MultiWriter(os.Stdout, logFile)),
	)
	return log, logFileName, nil
}

func openPath(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	case "darwin":
		cmd = exec.Command("open", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	return cmd.Start()
}

func (gui *ListingPacketGUI) startUpdateChecker() {
	if gui.updateChecker == nil {
		return
	}

	go func() {
		time.Sleep(5 * time.Second)
		gui.checkForUpdates()
	}()

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			gui.checkForUpdates()
		}
	}()
}

func (gui *ListingPacketGUI) checkForUpdates() {
	info, err := gui.updateChecker.CheckForUpdates(context.Background())
	if err != nil {
		gui.log.Debug("Failed to check for updates: %v", err)
		return
	}
	if info != nil && info.IsAvailable {
		gui.showUpdateDialog(info)
	}
}

func (gui *ListingPacketGUI) showUpdateDialog(info *updater.UpdateInfo) {
	message := fmt.Sprintf(
		"A new version of %s is available!\n\n"+
			"Current version: %s\n"+
			"Latest version: %s\n\n"+
			"%s",
		version.AppName,
		info.CurrentVersion,
		info.LatestVersion,
		info.UpdateMessage,
	)

	content := container.NewVBox(
		widget.NewRichTextFromMarkdown(message),
		container.NewHBox(
			widget.NewButton("Download Update", func() {
				if err := openPath(info.DownloadURL); err != nil {
					dialog.ShowError(fmt.Errorf("failed to open download page: %v", err), gui.window)
				}
			}),
		),
	)

	d := dialog.NewCustom("Update Available", "Later", content, gui.window)
	d.Resize(fyne.NewSize(500, 300))
	d.Show()
}

func (gui *ListingPacketGUI) Run() {
	gui.setupUI()
	gui.window.ShowAndRun()
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Printf("Warning: Failed to load config, using defaults: %v\n", err)
		}
		cfg = config.Default()
	}

	gui := NewListingPacketGUI(cfg)
	gui.startUpdateChecker()
	gui.Run()
}
