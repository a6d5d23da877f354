package diagfmt

import (
	"os"
	"path/filepath"

	"rill/internal/diag"
)

// autoPathLimit: absolute paths at least this long are shortened to their
// base name in PathModeAuto.
const autoPathLimit = 40

func formatPath(path string, mode PathMode, baseDir string) string {
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return filepath.ToSlash(abs)
		}
		return path
	case PathModeRelative:
		if baseDir == "" {
			// Если базовая директория не указана, используем текущую
			if wd, err := os.Getwd(); err == nil {
				baseDir = wd
			}
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return path
		}
		if rel, err := filepath.Rel(baseDir, abs); err == nil {
			return filepath.ToSlash(rel)
		}
		return path
	case PathModeBasename:
		return filepath.Base(path)
	case PathModeAuto:
		// короткий или относительный путь - как есть, иначе basename
		if len(path) < autoPathLimit || !filepath.IsAbs(path) {
			return path
		}
		return filepath.Base(path)
	default:
		return path
	}
}

// located reports whether d points into a file. I/O diagnostics are about
// files that may not be in the FileSet at all.
func located(d *diag.Diagnostic) bool {
	return d.Code < diag.IOLoadFileError || d.Code > diag.IOConfigError
}
