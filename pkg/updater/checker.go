package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kpauljoseph/listingpacket/pkg/logger"
	"github.com/kpauljoseph/listingpacket/pkg/version"
)

const (
	userAgent    = "ListingPacket-Updater"
	minCheckWait = time.Hour
)

type Checker struct {
	url            string
	currentVersion string
	client         *http.Client
	logger         *logger.Logger
	lastChecked    time.Time
}

type Option func(*Checker)

func WithClient(client *http.Client) Option {
	return func(c *Checker) { c.client = client }
}

func WithCurrentVersion(v string) Option {
	return func(c *Checker) { c.currentVersion = v }
}

// NewChecker polls a GitHub "latest release" endpoint.
func NewChecker(releaseURL string, logger *logger.Logger, options ...Option) *Checker {
	c := &Checker{
		url:            releaseURL,
		currentVersion: version.Version,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// CheckForUpdates returns nil, nil when called again within an hour or when
// running an unversioned build.
func (c *Checker) CheckForUpdates(ctx context.Context) (*UpdateInfo, error) {
	if time.Since(c.lastChecked) < minCheckWait {
		return nil, nil
	}
	c.lastChecked = time.Now()

	current := strings.TrimPrefix(c.currentVersion, "v")
	if _, ok := parseVersion(current); !ok {
		c.logger.Debug("Skipping update check for development build %q", c.currentVersion)
		return nil, nil
	}

	c.logger.Debug("Checking for updates...")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release endpoint returned status %d", resp.StatusCode)
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode release: %w", err)
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	info := &UpdateInfo{
		CurrentVersion: current,
		LatestVersion:  latest,
		UpdateMessage:  release.Body,
		DownloadURL:    release.HTMLURL,
	}
	if !release.Draft && !release.Prerelease {
		info.IsAvailable = compareVersions(current, latest) < 0
	}
	return info, nil
}

// compareVersions returns:
//
//	-1 if v1 < v2
//	 0 if v1 == v2
//	 1 if v1 > v2
//
// Components are compared numerically; a missing component counts as zero.
func compareVersions(v1, v2 string) int {
	parts1, _ := parseVersion(v1)
	parts2, _ := parseVersion(v2)

	for i := 0; i < len(parts1) || i < len(parts2); i++ {
		var a, b int
		if i < len(parts1) {
			a = parts1[i]
		}
		if i < len(parts2) {
			b = parts2[i]
		}
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}
	return 0
}

func parseVersion(v string) ([]int, bool) {
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	fields := strings.Split(v, ".")
	parts := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, false
		}
		parts = append(parts, n)
	}
	return parts, true
}
