package dataset

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// etagFile records the archive ETag inside the tasks directory so a
// later Install can skip an unchanged archive.
const etagFile = ".archive-etag"

// Install downloads the archive at url and installs every task JSON it
// contains into destDir, flattening archive paths to base names.
// Returns the number of task files installed; 0 when the archive has
// not changed since the last install.
func (f *Fetcher) Install(ctx context.Context, url, destDir string) (int, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return 0, eris.Wrap(err, "dataset: create tasks dir")
	}

	prevETag, _ := os.ReadFile(filepath.Join(destDir, etagFile))

	archivePath, newETag, changed, err := f.download(ctx, url, strings.TrimSpace(string(prevETag)))
	if err != nil {
		return 0, err
	}
	if !changed {
		zap.L().Info("task archive unchanged", zap.String("url", url))
		return 0, nil
	}
	defer os.Remove(archivePath)

	installed, err := extractTasks(archivePath, destDir)
	if err != nil {
		return installed, err
	}

	if newETag != "" {
		if err := os.WriteFile(filepath.Join(destDir, etagFile), []byte(newETag), 0644); err != nil {
			zap.L().Warn("write archive etag", zap.Error(err))
		}
	}

	zap.L().Info("task archive installed",
		zap.String("url", url),
		zap.Int("tasks", installed),
	)
	return installed, nil
}

// extractTasks copies every .json entry out of the ZIP archive into
// destDir under its base name. Directory entries, metadata folders,
// and non-JSON files are skipped.
func extractTasks(archivePath, destDir string) (int, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, eris.Wrap(err, "dataset: open archive")
	}
	defer r.Close() //nolint:errcheck

	installed := 0
	for _, entry := range r.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		name := filepath.Base(entry.Name)
		if !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		if strings.Contains(entry.Name, "__MACOSX") {
			continue
		}

		if err := extractEntry(entry, filepath.Join(destDir, name)); err != nil {
			return installed, err
		}
		installed++
	}

	if installed == 0 {
		return 0, eris.New("dataset: archive contains no task files")
	}
	return installed, nil
}

func extractEntry(entry *zip.File, dest string) error {
	rc, err := entry.Open()
	if err != nil {
		return eris.Wrapf(err, "dataset: open archive entry %s", entry.Name)
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(dest)
	if err != nil {
		return eris.Wrapf(err, "dataset: create %s", dest)
	}
	defer out.Close() //nolint:errcheck

	if _, err := io.Copy(out, rc); err != nil {
		return eris.Wrapf(err, "dataset: write %s", dest)
	}
	return nil
}
