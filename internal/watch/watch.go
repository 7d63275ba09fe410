// Package watch detects redeployments of an on-disk served root.
package watch

import (
	"context"
	"io/fs"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"smssync-site/internal/types"
)

// Snapshot lists every regular file under fsys.
func Snapshot(fsys fs.FS) (types.Manifest, error) {
	var manifest types.Manifest
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		manifest = append(manifest, types.ManifestEntry{
			Path:    p,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(manifest, func(i, j int) bool {
		return manifest[i].Path < manifest[j].Path
	})
	return manifest, nil
}

// Watcher polls a served root and reports each redeployment once.
type Watcher struct {
	fsys     fs.FS
	interval time.Duration
	onChange func(changed []string)
	last     types.Manifest
}

// New returns a Watcher. onChange receives the paths that differ from the
// previous snapshot.
func New(fsys fs.FS, interval time.Duration, onChange func(changed []string)) *Watcher {
	return &Watcher{
		fsys:     fsys,
		interval: interval,
		onChange: onChange,
	}
}

// Poll takes one snapshot and compares it with the previous one. The first
// call only records the baseline.
func (w *Watcher) Poll() ([]string, error) {
	current, err := Snapshot(w.fsys)
	if err != nil {
		return nil, err
	}
	if w.last == nil {
		w.last = current
		return nil, nil
	}
	if w.last.Equal(current) {
		return nil, nil
	}
	changed := w.last.Diff(current)
	w.last = current
	return changed, nil
}

// Run polls until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	logrus.WithField("interval", w.interval.String()).Info("Deployment watcher started")

	if _, err := w.Poll(); err != nil {
		logrus.WithError(err).Error("Initial deployment snapshot failed")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("Deployment watcher stopped")
			return
		case <-ticker.C:
			changed, err := w.Poll()
			if err != nil {
				// A redeployment in progress can briefly remove files.
				logrus.WithError(err).Warn("Deployment snapshot failed")
				continue
			}
			if len(changed) == 0 {
				continue
			}
			logrus.WithFields(logrus.Fields{
				"changed": changed,
				"count":   len(changed),
			}).Info("Deployment changed, notifying clients")
			w.onChange(changed)
		}
	}
}
