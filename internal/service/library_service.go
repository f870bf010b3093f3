package service

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

// LibraryService finds audio files on disk and reads them for ingestion.
// It only filters by extension; the content check happens on ingest.
// All operations are thread-safe.
type LibraryService struct {
	logger     *slog.Logger
	extensions map[string]struct{}

	mu         sync.Mutex
	scanning   bool
	cancelScan context.CancelFunc
}

// NewLibraryService creates a scanner for the given extensions (DefaultExtensions when empty).
func NewLibraryService(logger *slog.Logger, extensions []string) *LibraryService {
	return &LibraryService{
		logger:     logger.With(slog.String("service", "LibraryService")),
		extensions: extensionSet(extensions),
	}
}

// IsFormatSupported reports whether path carries an allowed extension.
func (s *LibraryService) IsFormatSupported(path string) bool {
	_, ok := s.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// SupportedFormats returns the allowed extensions, sorted.
func (s *LibraryService) SupportedFormats() []string {
	out := make([]string, 0, len(s.extensions))
	for e := range s.extensions {
		out = append(out, e)
	}
	slices.Sort(out)
	return out
}

// Collect expands paths into audio files. Directories are walked recursively
// and their files sorted by path; explicit files are kept in argument order and
// are not filtered, so ingestion can report them as rejected.
func (s *LibraryService) Collect(ctx context.Context, paths ...string) ([]string, error) {
	ctx, done, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return files, domain.NewNotFoundError("file", p)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		found, err := s.walk(ctx, p)
		files = append(files, found...)
		if err != nil {
			return files, err
		}
	}
	return files, nil
}

func (s *LibraryService) walk(ctx context.Context, root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// unreadable entries are skipped
			s.logger.Debug("skipping path", slog.String("path", path), slog.Any("error", err))
			return nil
		}
		if !entry.IsDir() && s.IsFormatSupported(path) {
			files = append(files, path)
		}
		return nil
	})
	slices.Sort(files)
	return files, err
}

// Read loads the content of files into ingestion inputs, in order.
func (s *LibraryService) Read(ctx context.Context, files []string) ([]IngestFile, error) {
	out := make([]IngestFile, 0, len(files))
	var total uint64
	err := Sequentially(ctx, files, func(_ context.Context, _ int, path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.NewServiceError("LibraryService", "Read", path, err)
		}
		total += uint64(len(data))
		out = append(out, IngestFile{Name: filepath.Base(path), Data: data})
		return nil
	})
	s.logger.Info("files read", slog.Int("count", len(out)), slog.String("size", humanize.Bytes(total)))
	return out, err
}

// CancelScan stops a running Collect.
func (s *LibraryService) CancelScan() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.scanning {
		return domain.NewServiceError("LibraryService", "CancelScan", "no scan in progress", nil)
	}
	s.cancelScan()
	return nil
}

// IsScanning reports whether a Collect is running.
func (s *LibraryService) IsScanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scanning
}

func (s *LibraryService) begin(parent context.Context) (context.Context, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scanning {
		return nil, nil, domain.NewServiceError("LibraryService", "Collect", "scan already in progress", nil)
	}
	ctx, cancel := context.WithCancel(parent)
	s.scanning = true
	s.cancelScan = cancel
	return ctx, func() {
		cancel()
		s.mu.Lock()
		s.scanning = false
		s.cancelScan = nil
		s.mu.Unlock()
	}, nil
}
