package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/grachmannico95/rex-docs-be/internal/domain"
	"github.com/grachmannico95/rex-docs-be/internal/objectstore"
	"github.com/grachmannico95/rex-docs-be/pkg/logger"
	"github.com/klauspost/compress/zip"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

type Limits struct {
	MaxEntries    int
	MaxEntryBytes int64
	MaxTotalBytes int64
}

type Config struct {
	Limits            Limits
	AllowedExtensions []string
	ValidatePDF       bool
}

func DefaultConfig() Config {
	return Config{
		Limits: Limits{
			MaxEntries:    1000,
			MaxEntryBytes: 50 << 20,
			MaxTotalBytes: 500 << 20,
		},
		AllowedExtensions: []string{".pdf"},
	}
}

type Manifest struct {
	StoragePrefix string                 `json:"storage_prefix"`
	Documents     []domain.DocumentEntry `json:"documents"`
	Skipped       int                    `json:"skipped"`
}

type Extractor struct {
	store  objectstore.Store
	cfg    Config
	logger *logger.Logger
}

func NewExtractor(store objectstore.Store, cfg Config, log *logger.Logger) *Extractor {
	return &Extractor{
		store:  store,
		cfg:    cfg,
		logger: log,
	}
}

// Extract reads a zip archive and stores every accepted document under
// prefix. On any error the objects written so far are removed.
func (e *Extractor) Extract(ctx context.Context, r io.ReaderAt, size int64, prefix string) (*Manifest, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, &domain.ArchiveError{Reason: "not a valid zip archive", Err: err}
	}

	if e.cfg.Limits.MaxEntries > 0 && len(zr.File) > e.cfg.Limits.MaxEntries {
		return nil, &domain.ArchiveError{
			Reason: fmt.Sprintf("archive has %d entries, limit is %d", len(zr.File), e.cfg.Limits.MaxEntries),
		}
	}

	manifest := &Manifest{StoragePrefix: prefix}
	used := make(map[string]bool)
	var total int64

	fail := func(err error) (*Manifest, error) {
		if cleanupErr := e.store.DeletePrefix(ctx, prefix); cleanupErr != nil {
			e.logger.Warn(ctx, "Failed to clean up partial extraction",
				"prefix", prefix,
				"error", cleanupErr,
			)
		}
		return nil, err
	}

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}

		name, ok := e.acceptedName(f)
		if !ok {
			manifest.Skipped++
			continue
		}

		if e.cfg.Limits.MaxEntryBytes > 0 && f.UncompressedSize64 > uint64(e.cfg.Limits.MaxEntryBytes) {
			return fail(&domain.ArchiveError{
				Reason: fmt.Sprintf("entry %s declares %d bytes, limit is %d", f.Name, f.UncompressedSize64, e.cfg.Limits.MaxEntryBytes),
			})
		}

		data, err := e.readEntry(f)
		if err != nil {
			return fail(err)
		}

		total += int64(len(data))
		if e.cfg.Limits.MaxTotalBytes > 0 && total > e.cfg.Limits.MaxTotalBytes {
			return fail(&domain.ArchiveError{
				Reason: fmt.Sprintf("archive expands beyond %d bytes", e.cfg.Limits.MaxTotalBytes),
			})
		}

		if e.cfg.ValidatePDF && strings.EqualFold(path.Ext(name), ".pdf") {
			if err := validatePDF(data); err != nil {
				e.logger.Warn(ctx, "Skipping invalid PDF entry",
					"entry", f.Name,
					"error", err,
				)
				manifest.Skipped++
				continue
			}
		}

		key := objectstore.JoinKey(prefix, storageName(name, used))
		if err := e.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "application/pdf"); err != nil {
			return fail(fmt.Errorf("storing entry %s: %w", f.Name, err))
		}

		manifest.Documents = append(manifest.Documents, domain.DocumentEntry{
			Filename:    name,
			StoragePath: key,
			SizeBytes:   uint64(len(data)),
		})
	}

	e.logger.Info(ctx, "Archive extracted",
		"documents", len(manifest.Documents),
		"skipped", manifest.Skipped,
		"total_bytes", total,
	)

	return manifest, nil
}

func (e *Extractor) acceptedName(f *zip.File) (string, bool) {
	if f.FileInfo().IsDir() {
		return "", false
	}
	entryName := strings.ReplaceAll(f.Name, "\\", "/")
	if strings.HasPrefix(entryName, "__MACOSX/") {
		return "", false
	}
	name := path.Base(entryName)
	if name == "." || name == "/" || strings.HasPrefix(name, "._") {
		return "", false
	}

	ext := strings.ToLower(path.Ext(name))
	for _, allowed := range e.cfg.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return name, true
		}
	}
	return "", false
}

// readEntry decompresses one entry, enforcing the size cap on actual bytes
// since the header size can lie.
func (e *Extractor) readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, &domain.ArchiveError{Reason: "cannot open entry " + f.Name, Err: err}
	}
	defer rc.Close()

	var src io.Reader = rc
	if e.cfg.Limits.MaxEntryBytes > 0 {
		src = io.LimitReader(rc, e.cfg.Limits.MaxEntryBytes+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, &domain.ArchiveError{Reason: "cannot read entry " + f.Name, Err: err}
	}
	if e.cfg.Limits.MaxEntryBytes > 0 && int64(len(data)) > e.cfg.Limits.MaxEntryBytes {
		return nil, &domain.ArchiveError{
			Reason: fmt.Sprintf("entry %s exceeds %d bytes", f.Name, e.cfg.Limits.MaxEntryBytes),
		}
	}
	return data, nil
}

// storageName keeps storage keys unique within one session. A generated
// name is itself tracked, so a later entry literally named 1_x.pdf cannot
// land on the key given to the second x.pdf.
func storageName(name string, used map[string]bool) string {
	candidate := name
	for n := 1; used[candidate]; n++ {
		candidate = fmt.Sprintf("%d_%s", n, name)
	}
	used[candidate] = true
	return candidate
}

func validatePDF(data []byte) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return errors.Join(errors.New("pdf validation failed"), err)
	}
	return nil
}
