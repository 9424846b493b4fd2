package shapefile

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// sidecarExts are the files that make up one shapefile artifact.
var sidecarExts = []string{".shp", ".shx", ".dbf", ".prj"}

// Archive zips a shapefile and its sidecars into "<base>.zip" next to
// the .shp and returns the archive path. Missing optional sidecars are
// skipped; a missing .shp is an error.
func Archive(shpPath string) (string, error) {
	zipPath := strings.TrimSuffix(shpPath, ".shp") + ".zip"

	out, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("create archive %s: %w", zipPath, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, ext := range sidecarExts {
		path := sidecarPath(shpPath, ext)
		if err := addFile(zw, path); err != nil {
			if os.IsNotExist(err) && ext != ".shp" {
				continue
			}
			return "", fmt.Errorf("archive %s: %w", path, err)
		}
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("finalize archive %s: %w", zipPath, err)
	}

	return zipPath, nil
}

func addFile(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := zw.Create(filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}
