// Package jailer applies the webOS jailer fix: it reads the device release
// token and fetches the jailer configuration file plus its signature from the
// LGE developer portal.
package jailer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/webosbrew/jailfetch/internal/logctx"
	"github.com/webosbrew/jailfetch/internal/notifier"
	"github.com/webosbrew/jailfetch/internal/storage"
)

const (
	confFileName = "jail_app.conf"
	sigFileName  = "jail_app.conf.sig"

	releaseKey = "webos_release"
)

// ReadField resolves a string field from a JSON document on disk.
type ReadField func(path, key string) (string, error)

// Downloader fetches a URL into a destination file.
type Downloader interface {
	Fetch(ctx context.Context, url, dst string) error
}

type Config struct {
	// OSInfoPath is the JSON document carrying the webos_release token.
	OSInfoPath string

	// HomeDir is where jail_app.conf and its signature are expected to live.
	HomeDir string

	// URLTemplate receives the release token and the file type ("conf"/"sig").
	URLTemplate string

	// ConfTargetPath and SigTargetPath are where downloads are written. Note
	// that the shipped fix pointed these at scratch paths rather than the
	// conf/sig paths checked below; callers choose which behavior they want.
	ConfTargetPath string
	SigTargetPath  string

	// SkipIfPresent returns early when both local files already exist. The
	// shipped fix logged the detection but downloaded anyway, so false
	// reproduces observed behavior.
	SkipIfPresent bool
}

// Fixer orchestrates one application of the jailer fix.
type Fixer struct {
	cfg       Config
	readField ReadField
	driver    Downloader
	notif     notifier.Notifier
	history   storage.FetchWriteRepository
}

// NewFixer wires the fix. The notifier and history repository may be nil.
func NewFixer(cfg Config, readField ReadField, driver Downloader, notif notifier.Notifier, history storage.FetchWriteRepository) *Fixer {
	return &Fixer{
		cfg:       cfg,
		readField: readField,
		driver:    driver,
		notif:     notif,
		history:   history,
	}
}

// ApplyFix reads the release token, then downloads the jailer configuration
// and its signature. Both downloads are always attempted; the result is true
// only when both succeeded.
func (f *Fixer) ApplyFix(ctx context.Context) bool {
	logger := logctx.LoggerFromContext(ctx)

	release, err := f.readField(f.cfg.OSInfoPath, releaseKey)
	if err != nil {
		logger.Error("failed to read webOS release", "path", f.cfg.OSInfoPath, "err", err)

		return false
	}

	confPath := filepath.Join(f.cfg.HomeDir, confFileName)
	sigPath := filepath.Join(f.cfg.HomeDir, sigFileName)

	if pathIsValid(confPath) && pathIsValid(sigPath) {
		logger.Info("found jail_app.conf and signature", "conf", confPath, "sig", sigPath)

		if f.cfg.SkipIfPresent {
			return true
		}
	}

	logger.Info("downloading jail_app.conf and signature", "release", release)

	f.notify(ctx, "Downloading jailer configuration files")

	confURL := fmt.Sprintf(f.cfg.URLTemplate, release, "conf")
	sigURL := fmt.Sprintf(f.cfg.URLTemplate, release, "sig")

	success := true

	if err := f.fetch(ctx, confURL, f.cfg.ConfTargetPath); err != nil {
		logger.Error("failed to download jail_app.conf", "err", err)

		success = false
	}

	if err := f.fetch(ctx, sigURL, f.cfg.SigTargetPath); err != nil {
		logger.Error("failed to download jail_app.conf.sig", "err", err)

		success = false
	}

	return success
}

func (f *Fixer) fetch(ctx context.Context, url, dst string) error {
	err := f.driver.Fetch(ctx, url, dst)

	f.record(ctx, url, dst, err)

	return err
}

func (f *Fixer) record(ctx context.Context, url, dst string, fetchErr error) {
	if f.history == nil {
		return
	}

	status := storage.StatusDownloaded
	if fetchErr != nil {
		status = storage.StatusFailed
	}

	rec := storage.FetchRecord{
		URL:        url,
		TargetPath: dst,
		Status:     status,
	}

	if err := f.history.TrackFetch(rec); err != nil {
		logctx.LoggerFromContext(ctx).Warn("failed to record fetch", "url", url, "err", err)
	}
}

func (f *Fixer) notify(ctx context.Context, text string) {
	if f.notif == nil {
		return
	}

	if err := f.notif.Notify(ctx, notifier.Info(text)); err != nil {
		logctx.LoggerFromContext(ctx).Warn("failed to send notification", "err", err)
	}
}

func pathIsValid(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}
