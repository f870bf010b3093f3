package service

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

// DefaultExtensions is the audio extension allow-list used when none is configured.
var DefaultExtensions = []string{
	".mp3", ".mp2", ".mp1",
	".ogg", ".oga", ".opus",
	".wav", ".aif", ".aiff",
	".flac", ".fla",
	".aac", ".m4a", ".m4b", ".mp4",
	".wma",
	".wv",
	".ape",
	".webm",
}

// TrackRegistry creates tracks from raw files and manages their playback handles.
// It holds no state of its own beyond configuration.
type TrackRegistry struct {
	blobs      *BlobService
	extensions map[string]struct{}
	logger     *slog.Logger
}

// NewTrackRegistry creates a registry accepting the given extensions
// (DefaultExtensions when empty).
func NewTrackRegistry(blobs *BlobService, extensions []string, logger *slog.Logger) *TrackRegistry {
	return &TrackRegistry{
		blobs:      blobs,
		extensions: extensionSet(extensions),
		logger:     logger.With(slog.String("service", "TrackRegistry")),
	}
}

func extensionSet(extensions []string) map[string]struct{} {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	exts := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = struct{}{}
	}
	return exts
}

// Sniff reports whether the input looks like audio, and the detected container.
// The extension allow-list is checked first; otherwise the payload header must be
// a container the tag library recognises.
func (r *TrackRegistry) Sniff(data []byte, filename string) (string, bool) {
	format := ""
	if _, fileType, err := tag.Identify(bytes.NewReader(data)); err == nil && fileType != tag.UnknownFileType {
		format = string(fileType)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := r.extensions[ext]; ok {
		if format == "" {
			format = strings.ToUpper(strings.TrimPrefix(ext, "."))
		}
		return format, true
	}
	return format, format != ""
}

// Ingest validates the input, persists it and returns a track with a live handle
// minted from the in-memory payload. The handle is created first and released if
// the durable write fails.
func (r *TrackRegistry) Ingest(ctx context.Context, data []byte, filename string) (*domain.Track, error) {
	format, ok := r.Sniff(data, filename)
	if !ok {
		verr := domain.NewValidationError("file", filename, "not an audio file")
		verr.Err = domain.ErrUnsupportedFormat
		return nil, verr
	}

	handle := r.blobs.OpenHandle(data)
	id, err := r.blobs.Put(ctx, data)
	if err != nil {
		r.blobs.ReleaseHandle(handle)
		return nil, err
	}

	track := &domain.Track{
		ID:     id,
		Name:   TrackName(filename),
		Format: format,
		Handle: handle,
	}
	r.logger.Info("track ingested",
		slog.String("id", track.ID),
		slog.String("name", track.Name),
		slog.String("format", format))
	return track, nil
}

// TrackName strips the directory and the last extension from a filename.
// A leading or trailing dot is kept, so ".mp3" and "take." stay as they are.
func TrackName(filename string) string {
	base := filepath.Base(filename)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	i := strings.LastIndexByte(base, '.')
	if i <= 0 || i == len(base)-1 {
		return base
	}
	return base[:i]
}

// RefreshDuration records a duration reported by the playback engine. It returns
// false when the value was rejected or unchanged.
func (r *TrackRegistry) RefreshDuration(track *domain.Track, seconds float64) bool {
	if track == nil {
		return false
	}
	return track.SetDuration(seconds)
}

// Resolve returns the track's handle, minting one from the blob store if needed.
// A missing blob yields ErrBlobMissing.
func (r *TrackRegistry) Resolve(ctx context.Context, track *domain.Track) (domain.PlaybackHandle, error) {
	if track.HasHandle() {
		return track.Handle, nil
	}
	handle, err := r.blobs.ResolvePlaybackHandle(ctx, track.ID)
	if err != nil {
		return domain.InvalidPlaybackHandle, err
	}
	if handle == domain.InvalidPlaybackHandle {
		return domain.InvalidPlaybackHandle, domain.ErrBlobMissing
	}
	track.Handle = handle
	return handle, nil
}

// Dispose releases the track's handle. The blob is left alone. Safe to call twice.
func (r *TrackRegistry) Dispose(track *domain.Track) {
	if track == nil || !track.HasHandle() {
		return
	}
	r.blobs.ReleaseHandle(track.Handle)
	track.Handle = domain.InvalidPlaybackHandle
}

// Purge releases the handle and deletes the blob.
func (r *TrackRegistry) Purge(ctx context.Context, track *domain.Track) error {
	r.Dispose(track)
	return r.blobs.Delete(ctx, track.ID)
}

// PurgeID deletes a blob for a track that is no longer held by any playlist.
func (r *TrackRegistry) PurgeID(ctx context.Context, id string) error {
	return r.blobs.Delete(ctx, id)
}
