// Package extract provides per-page text extraction from source documents.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/arka/internal/models"
	"go.uber.org/zap"
)

// ErrSourceNotFound is returned when the source directory does not exist.
var ErrSourceNotFound = errors.New("source directory not found")

// SupportedExtensions lists the file extensions ExtractDirectory can read.
var SupportedExtensions = []string{".pdf", ".docx", ".xlsx", ".pptx", ".txt", ".md"}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used for skipped-file warnings.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		e.logger = l
	}
}

// Extractor extracts page text from document files.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor returns a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract reads the file at path and returns its pages. The source document
// name recorded on each page is the file's base name.
func (e *Extractor) Extract(path string) ([]models.Page, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext, filepath.Base(path))
}

// ExtractBytes extracts pages from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf"). Unknown extensions are read as plain text.
//
// PDF yields one page per PDF page, PPTX one per slide, XLSX one per sheet;
// DOCX and plain text yield a single page 1.
func (e *Extractor) ExtractBytes(content []byte, ext, name string) ([]models.Page, error) {
	var (
		texts []string
		err   error
	)
	switch ext {
	case ".pdf":
		texts, err = extractPDF(content)
	case ".docx":
		texts, err = extractDOCX(content)
	case ".xlsx":
		texts, err = extractExcel(content)
	case ".pptx":
		texts, err = extractPPTX(content)
	default:
		texts, err = extractPlain(content)
	}
	if err != nil {
		return nil, err
	}
	pages := make([]models.Page, len(texts))
	for i, t := range texts {
		pages[i] = models.Page{SourceDocument: name, PageNumber: i + 1, Text: t}
	}
	return pages, nil
}

// ExtractDirectory extracts every regular file directly inside dir whose extension
// is in exts, visiting files in lexical order. A nil or empty exts means ".pdf".
// Files that fail to parse are skipped with a warning. A missing directory
// returns ErrSourceNotFound.
func (e *Extractor) ExtractDirectory(dir string, exts []string) ([]models.Page, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, dir)
		}
		return nil, fmt.Errorf("stat source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path is not a directory: %s", dir)
	}

	allowed := extensionSet(exts)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read source directory: %w", err)
	}

	var pages []models.Page
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if !allowed[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		filePages, err := e.Extract(path)
		if err != nil {
			if e.logger != nil {
				e.logger.Warn("skipping unreadable document", zap.String("path", path), zap.Error(err))
			}
			continue
		}
		if e.logger != nil {
			e.logger.Debug("extracted document", zap.String("path", path), zap.Int("pages", len(filePages)))
		}
		pages = append(pages, filePages...)
	}
	return pages, nil
}

// IsSupported reports whether ext (with leading dot) is an extension the extractor understands.
func IsSupported(ext string) bool {
	ext = strings.ToLower(ext)
	for _, s := range SupportedExtensions {
		if s == ext {
			return true
		}
	}
	return false
}

func extensionSet(exts []string) map[string]bool {
	if len(exts) == 0 {
		exts = []string{".pdf"}
	}
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = true
	}
	return set
}
