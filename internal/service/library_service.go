package service

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/dhowden/tag"
	"github.com/google/uuid"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/ports"
)

// supportedFormats are the extensions the importer accepts.
// Tags are read for every format dhowden/tag understands; WAV falls back to the file name.
var supportedFormats = []string{
	".mp3",
	".m4a", ".m4b", ".mp4", ".aac",
	".flac",
	".ogg", ".oga", ".opus",
	".dsf",
	".wav",
}

// LibraryService imports local audio files into the streamable catalog:
// it scans folders, reads tags and uploads audio and artwork to the content
// store, returning tracks whose locators the player can resolve.
// All operations are thread-safe via sync.RWMutex.
type LibraryService struct {
	// Dependencies (injected)
	logger *slog.Logger
	store  ports.ContentStore
	bus    ports.EventBus

	// State
	scanning   bool
	cancelScan context.CancelFunc

	// Concurrency control
	mu sync.RWMutex
}

// NewLibraryService creates a new library service.
func NewLibraryService(
	logger *slog.Logger,
	store ports.ContentStore,
	bus ports.EventBus,
) *LibraryService {
	return &LibraryService{
		logger: logger.With(slog.String("service", "library")),
		store:  store,
		bus:    bus,
	}
}

// ScanFolder imports every supported file under folderPath, recursively.
// Publishes progress events during scanning.
func (s *LibraryService) ScanFolder(ctx context.Context, folderPath string) ([]domain.Track, error) {
	ctx, done, err := s.begin(ctx, "ScanFolder")
	if err != nil {
		return nil, err
	}
	defer done()

	s.bus.Publish(domain.NewScanStartedEvent(folderPath))

	files, err := s.collectAudioFiles(ctx, folderPath)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.bus.Publish(domain.NewScanCancelledEvent("user cancelled"))
			return nil, domain.ErrScanCancelled
		}
		return nil, domain.NewServiceError("LibraryService", "ScanFolder", "failed to walk folder", err)
	}

	return s.importAll(ctx, files)
}

// ImportFiles imports the given files. Unsupported formats are skipped.
func (s *LibraryService) ImportFiles(ctx context.Context, filePaths []string) ([]domain.Track, error) {
	ctx, done, err := s.begin(ctx, "ImportFiles")
	if err != nil {
		return nil, err
	}
	defer done()

	files := make([]string, 0, len(filePaths))
	for _, p := range filePaths {
		if s.IsFormatSupported(p) {
			files = append(files, p)
		}
	}

	s.bus.Publish(domain.NewScanStartedEvent(strings.Join(filePaths, ", ")))
	return s.importAll(ctx, files)
}

func (s *LibraryService) begin(parent context.Context, op string) (context.Context, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scanning {
		return nil, nil, domain.NewServiceError("LibraryService", op, "scan already in progress", nil)
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

func (s *LibraryService) importAll(ctx context.Context, files []string) ([]domain.Track, error) {
	tracks := make([]domain.Track, 0, len(files))
	total := len(files)

	for i, filePath := range files {
		select {
		case <-ctx.Done():
			s.bus.Publish(domain.NewScanCancelledEvent("user cancelled"))
			return tracks, domain.ErrScanCancelled
		default:
		}

		track, err := s.importFile(ctx, filePath)
		switch {
		case errors.Is(err, context.Canceled):
			s.bus.Publish(domain.NewScanCancelledEvent("user cancelled"))
			return tracks, domain.ErrScanCancelled
		case err != nil:
			// Skip files that can't be imported but keep scanning
			s.logger.Warn("skipping file", slog.String("path", filePath), slog.Any("error", err))
		default:
			tracks = append(tracks, track)
		}

		s.bus.Publish(domain.NewScanProgressEvent(domain.ScanProgress{
			CurrentFile:  filePath,
			FilesScanned: i + 1,
			TotalFiles:   total,
			TracksFound:  len(tracks),
		}))
	}

	s.logger.Info("import finished", slog.Int("files", total), slog.Int("tracks", len(tracks)))
	s.bus.Publish(domain.NewScanCompletedEvent(tracks))
	return tracks, nil
}

// importFile reads tags, uploads the audio (and embedded artwork) and builds the track.
func (s *LibraryService) importFile(ctx context.Context, filePath string) (domain.Track, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return domain.Track{}, err
	}

	track, picture := trackFromTags(filePath, data)

	name := filepath.Base(filePath)
	locator, err := s.store.Store(ctx, name, bytes.NewReader(data))
	if err != nil {
		return domain.Track{}, err
	}
	track.AudioLocator = locator
	track.ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(locator)).String()

	if picture != nil && len(picture.Data) > 0 {
		ext := picture.Ext
		if ext == "" {
			ext = "jpg"
		}
		cover, err := s.store.Store(ctx, strings.TrimSuffix(name, filepath.Ext(name))+"-cover."+ext,
			bytes.NewReader(picture.Data))
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return domain.Track{}, err
			}
			s.logger.Warn("cover upload failed", slog.String("path", filePath), slog.Any("error", err))
		} else {
			track.CoverLocator = cover
		}
	}
	return track, nil
}

// ReadTags extracts the metadata of a single file without importing it.
func (s *LibraryService) ReadTags(filePath string) (domain.Track, error) {
	if !s.IsFormatSupported(filePath) {
		return domain.Track{}, domain.ErrUnsupportedFormat
	}
	data, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Track{}, domain.ErrFileNotFound
	}
	if err != nil {
		return domain.Track{}, err
	}
	track, _ := trackFromTags(filePath, data)
	return track, nil
}

// trackFromTags fills title, artist and album from the file's tags,
// falling back to the file name when no tags are present.
func trackFromTags(filePath string, data []byte) (domain.Track, *tag.Picture) {
	base := filepath.Base(filePath)
	track := domain.Track{
		Title:  strings.TrimSuffix(base, filepath.Ext(base)),
		Artist: "Unknown Artist",
	}

	metadata, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil || metadata == nil {
		return track, nil
	}

	if title := strings.TrimSpace(metadata.Title()); title != "" {
		track.Title = title
	}
	if artist := strings.TrimSpace(metadata.Artist()); artist != "" {
		track.Artist = artist
	} else if albumArtist := strings.TrimSpace(metadata.AlbumArtist()); albumArtist != "" {
		track.Artist = albumArtist
	}
	if album := strings.TrimSpace(metadata.Album()); album != "" {
		track.Album = album
	}
	return track, metadata.Picture()
}

// CancelScan cancels the currently running scan operation.
func (s *LibraryService) CancelScan() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.scanning {
		return domain.NewServiceError("LibraryService", "CancelScan", "no scan in progress", nil)
	}
	if s.cancelScan != nil {
		s.cancelScan()
	}
	return nil
}

// IsScanning returns true if a scan is currently in progress.
func (s *LibraryService) IsScanning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanning
}

// IsFormatSupported checks if a file format is supported.
func (s *LibraryService) IsFormatSupported(filePath string) bool {
	return slices.Contains(supportedFormats, strings.ToLower(filepath.Ext(filePath)))
}

// SupportedFormats returns the list of supported file extensions.
func (s *LibraryService) SupportedFormats() []string {
	return slices.Clone(supportedFormats)
}

// collectAudioFiles recursively collects all audio files in a directory.
func (s *LibraryService) collectAudioFiles(ctx context.Context, folderPath string) ([]string, error) {
	if _, err := os.Stat(folderPath); err != nil {
		return nil, err
	}

	files := make([]string, 0)
	err := filepath.WalkDir(folderPath, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Skip files/folders we can't access
			return nil
		}
		if !d.IsDir() && s.IsFormatSupported(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// Shutdown cancels any running scan.
func (s *LibraryService) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scanning && s.cancelScan != nil {
		s.cancelScan()
	}
	return nil
}

var _ interface {
	ScanFolder(context.Context, string) ([]domain.Track, error)
	ImportFiles(context.Context, []string) ([]domain.Track, error)
	CancelScan() error
	IsScanning() bool
	IsFormatSupported(string) bool
	SupportedFormats() []string
	ReadTags(string) (domain.Track, error)
	Shutdown() error
} = (*LibraryService)(nil)
