package dicom

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindFiles lists every regular file under inputPath, sorted by path.
// Whether a file is actually DICOM is decided later by the parser; a
// non-DICOM file simply fails to read and is reported, so no content-based
// filtering happens here. The output directory (skipDir) is excluded to
// avoid re-processing a previous run's results, as are temp files left by
// an interrupted write.
func FindFiles(inputPath, skipDir string) ([]string, error) {
	var files []string

	walkFn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip files we can't access
		}

		if info.IsDir() {
			if path != inputPath && info.Name() == skipDir {
				return filepath.SkipDir
			}
			return nil
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		name := info.Name()
		if strings.HasPrefix(name, ".anon-") && strings.HasSuffix(name, ".tmp") {
			return nil
		}

		files = append(files, path)
		return nil
	}

	if err := filepath.Walk(inputPath, walkFn); err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
