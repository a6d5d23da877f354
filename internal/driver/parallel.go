package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"rill/internal/diag"
	"rill/internal/prof"
	"rill/internal/source"
)

// SourceExt is the extension of source files.
const SourceExt = ".rl"

// ListSources возвращает отсортированный список всех *.rl файлов в директории
func ListSources(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, SourceExt) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// DisplayPath is the form of path used in results and progress events; it
// matches the path a FileSet records for it.
func DisplayPath(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

// ExpandPaths loads paths into the driver's file set and expands them in
// parallel. A file that fails to load gets a result holding only an I/O
// diagnostic. Results are in the order of paths.
func (d *Driver) ExpandPaths(ctx context.Context, paths []string) ([]*FileResult, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	for _, path := range paths {
		d.emit(Event{File: DisplayPath(path), Status: StatusQueued})
	}

	// Загружаем файлы последовательно: порядок FileID детерминирован
	fileIDs := make([]source.FileID, len(paths))
	loadErrors := make(map[int]error, len(paths))
	for i, path := range paths {
		id, err := d.files.Load(path)
		if err != nil {
			loadErrors[i] = err
			continue
		}
		fileIDs[i] = id
	}

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	results := make([]*FileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(d.opts.Jobs, len(paths)))

	for i, path := range paths {
		g.Go(func() error {
			// Проверка отмены
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			if loadErr, hadError := loadErrors[i]; hadError {
				bag := diag.NewBag(d.opts.MaxDiagnostics)
				bag.Add(diag.Diagnostic{
					Severity: diag.SevError,
					Code:     diag.IOLoadFileError,
					Message:  "failed to load file: " + loadErr.Error(),
				})
				results[i] = &FileResult{Path: DisplayPath(path), Bag: bag}
				d.emit(Event{File: DisplayPath(path), Stage: StageParse, Status: StatusError, Err: loadErr})
				return nil
			}

			var (
				res *FileResult
				err error
			)
			prof.Do(gctx, DisplayPath(path), func(ctx context.Context) {
				res, err = d.ExpandFile(ctx, fileIDs[i])
			})
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
