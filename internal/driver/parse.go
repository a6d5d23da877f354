package driver

import (
	"context"

	"rill/internal/diag"
	"rill/internal/expand"
	"rill/internal/source"
	"rill/internal/span"
)

type ParseResult struct {
	FileSet *source.FileSet
	File    *source.File
	Tree    *expand.FileTree
	Bag     *diag.Bag
}

// Parse loads and parses the file at path.
func Parse(ctx context.Context, path string, opts Options) (*ParseResult, error) {
	fs := source.NewFileSet()
	fileID, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	d := New(fs, opts)
	ft, err := d.reg.File(ctx, span.RealFile(fileID))
	if err != nil {
		return nil, err
	}

	bag := diag.NewBag(d.opts.MaxDiagnostics)
	for _, dg := range ft.Diagnostics {
		bag.Add(dg)
	}
	bag.Sort()

	return &ParseResult{
		FileSet: fs,
		File:    fs.Get(fileID),
		Tree:    ft,
		Bag:     bag,
	}, nil
}
