package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/ports"
)

// DeckConfig tunes the deck's components.
type DeckConfig struct {
	// Extensions is the audio allow-list; DefaultExtensions when empty
	Extensions []string

	// MaxLogEntries caps the action log; DefaultMaxLogEntries when zero
	MaxLogEntries int

	// ReconcileConcurrency bounds parallel blob reads on Open
	ReconcileConcurrency int
}

// Deck is the composed library state: registries, transfer engine, action log,
// persistence and the player, behind one mutex. Every user gesture enters
// through Handle. Events raised while the lock is held are buffered and
// published once it is released, so subscribers may call back into the deck.
type Deck struct {
	logger *slog.Logger
	bus    ports.EventBus
	events *eventbus.Buffer
	engine ports.PlaybackEngine

	// ingestMu keeps one ingestion batch contiguous in the queue
	ingestMu sync.Mutex

	mu        sync.Mutex
	blobs     *BlobService
	tracks    *TrackRegistry
	playlists *PlaylistRegistry
	transfer  *TransferEngine
	history   *ActionLog
	sync      *Synchronizer
	player    *PlayerService

	subs   []domain.SubscriptionID
	opened bool
	closed bool
}

// NewDeck wires a deck over the given stores and engine. Call Open before use.
func NewDeck(
	cfg DeckConfig,
	blobStore ports.BlobStore,
	handles ports.HandleTable,
	docs ports.DocumentStore,
	engine ports.PlaybackEngine,
	bus ports.EventBus,
	logger *slog.Logger,
) *Deck {
	d := &Deck{
		logger: logger.With(slog.String("service", "Deck")),
		bus:    bus,
		events: eventbus.NewBuffer(bus),
		engine: engine,
	}

	d.blobs = NewBlobService(blobStore, handles, logger)
	d.tracks = NewTrackRegistry(d.blobs, cfg.Extensions, logger)
	d.playlists = NewPlaylistRegistry(d.tracks, logger)
	d.transfer = NewTransferEngine(d.playlists, logger)
	d.history = NewActionLog(cfg.MaxLogEntries, logger)
	d.sync = NewSynchronizer(docs, d.blobs, logger)
	if cfg.ReconcileConcurrency != 0 {
		d.sync.SetConcurrency(cfg.ReconcileConcurrency)
	}
	d.player = NewPlayerService(logger, engine, d.playlists, d.tracks, d.events.Add)

	d.registerUndoHandlers()
	d.history.OnEvict(func(evicted []domain.ActionLogEntry) {
		d.releaseEntries(context.Background(), evicted)
	})
	return d
}

// Open loads the persisted library and action log, restores the view and
// volume, resolves playback handles and loads the first track of the view.
// A corrupt document is reported and the deck starts empty.
func (d *Deck) Open(ctx context.Context) error {
	d.mu.Lock()
	if d.opened {
		d.mu.Unlock()
		return domain.ErrAlreadyInitialized
	}
	if err := ctx.Err(); err != nil {
		d.mu.Unlock()
		return err
	}

	doc, err := d.sync.Load(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			d.mu.Unlock()
			return err
		}
		d.storageFailed("load library", err)
	}
	d.playlists.Load(doc)

	logDoc, err := d.sync.LoadLog(ctx)
	if err != nil {
		d.storageFailed("load action log", err)
	}
	d.history.Load(logDoc)
	d.opened = true

	d.player.Restore(domain.ParseKey(doc.CurrentPlaylistID), doc.Volume)
	unresolved := d.playlists.Unresolved()
	d.mu.Unlock()
	d.events.Flush()

	d.subscribeEngine()

	var resolved, missing, failed int
	err = d.sync.Reconcile(ctx, unresolved, func(r Resolution) {
		d.mu.Lock()
		defer d.mu.Unlock()
		switch {
		case r.Err != nil:
			failed++
		case r.Missing():
			missing++
		default:
			resolved++
			// the track may have been removed or resolved lazily in the meantime
			if t, ok := d.playlists.FindTrack(r.Track.ID); ok && t == r.Track && !t.HasHandle() {
				t.Handle = r.Handle
			} else {
				d.blobs.ReleaseHandle(r.Handle)
			}
		}
	})
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.logger.Info("library opened",
		slog.Int("playlists", len(d.playlists.Playlists())),
		slog.Int("resolved", resolved),
		slog.Int("missing", missing),
		slog.Int("failed", failed))
	d.events.Add(domain.NewLibraryReconciledEvent(resolved, missing, failed))
	if d.playlists.Len(d.player.Viewed()) > 0 && d.engine.Loaded() == domain.InvalidPlaybackHandle {
		if err := d.player.LoadTrack(ctx, 0); err != nil {
			d.logger.Warn("first track not loadable", slog.Any("error", err))
		}
	}
	d.mu.Unlock()
	d.events.Flush()
	return nil
}

// Close saves both documents, stops playback and releases every handle.
// The engine and stores are owned by the caller and stay open.
func (d *Deck) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return domain.ErrClosed
	}
	d.closed = true
	for _, id := range d.subs {
		d.bus.Unsubscribe(id)
	}
	d.subs = nil

	err := d.persist(ctx)
	d.player.Stop()
	d.playlists.ReleaseAll()
	d.mu.Unlock()
	d.events.Flush()
	return err
}

func (d *Deck) subscribeEngine() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs = append(d.subs,
		d.bus.Subscribe(domain.EventEngineDuration, d.onEngineDuration),
		d.bus.Subscribe(domain.EventEngineError, d.onEngineError),
	)
	// an end reported for media that has since been replaced is noise
	if fb, ok := d.bus.(ports.FilteringEventBus); ok {
		d.subs = append(d.subs, fb.SubscribeFiltered(domain.EventEngineEnded, d.endedLoaded, d.onEngineEnded))
	} else {
		d.subs = append(d.subs, d.bus.Subscribe(domain.EventEngineEnded, d.onEngineEnded))
	}
}

func (d *Deck) endedLoaded(event domain.Event) bool {
	e, ok := event.(domain.EngineEndedEvent)
	return ok && e.Handle == d.engine.Loaded()
}

func (d *Deck) onEngineDuration(event domain.Event) {
	e, ok := event.(domain.EngineDurationEvent)
	if !ok {
		return
	}
	d.mu.Lock()
	if t, found := d.playlists.FindByHandle(e.Handle); found && d.tracks.RefreshDuration(t, e.Seconds) {
		d.logger.Debug("duration refreshed", slog.String("id", t.ID), slog.Float64("seconds", e.Seconds))
		_ = d.persist(context.Background())
	}
	d.mu.Unlock()
	d.events.Flush()
}

func (d *Deck) onEngineEnded(event domain.Event) {
	e, ok := event.(domain.EngineEndedEvent)
	if !ok {
		return
	}
	d.mu.Lock()
	if err := d.player.HandleEnded(context.Background(), e.Handle); err != nil {
		d.logger.Warn("advancing after track end failed", slog.Any("error", err))
	}
	d.mu.Unlock()
	d.events.Flush()
}

func (d *Deck) onEngineError(event domain.Event) {
	e, ok := event.(domain.EngineErrorEvent)
	if !ok {
		return
	}
	d.mu.Lock()
	id := ""
	if t, found := d.playlists.FindByHandle(e.Handle); found {
		id = t.ID
	}
	d.logger.Error("playback error", slog.String("track", id), slog.Any("error", e.Error))
	d.events.Add(domain.NewTrackErrorEvent(id, e.Error))
	d.mu.Unlock()
	d.events.Flush()
}

// Handle executes one request.
func (d *Deck) Handle(ctx context.Context, req Request) (Result, error) {
	if ingest, ok := req.(RequestIngestFiles); ok {
		return d.ingestFiles(ctx, ingest.Files)
	}

	d.mu.Lock()
	if err := d.usable(); err != nil {
		d.mu.Unlock()
		return Result{}, err
	}
	res, err := d.handleLocked(ctx, req)
	d.mu.Unlock()
	d.events.Flush()

	if err != nil {
		d.logger.Debug("request failed", slog.String("request", req.requestName()), slog.Any("error", err))
	}
	return res, err
}

func (d *Deck) usable() error {
	if d.closed {
		return domain.ErrClosed
	}
	if !d.opened {
		return domain.ErrNotInitialized
	}
	return nil
}

func (d *Deck) handleLocked(ctx context.Context, req Request) (Result, error) {
	switch r := req.(type) {
	case RequestCreatePlaylist:
		return d.createPlaylist(ctx, r.Name, r.Cover)
	case RequestDeletePlaylist:
		return d.deletePlaylist(ctx, r.Playlist)
	case RequestRemoveTrack:
		return d.removeTrack(ctx, r.Playlist, r.Position)
	case RequestClearPlaylist:
		return d.clearPlaylist(ctx, r.Playlist)
	case RequestMoveTrack:
		return d.move(ctx, r.Source, []int{r.Position}, r.Target)
	case RequestMoveTracks:
		return d.move(ctx, r.Source, r.Positions, r.Target)
	case RequestMoveSelection:
		return d.move(ctx, d.player.Viewed(), d.player.Selected(), r.Target)
	case RequestDrop:
		return d.drop(ctx, r.Payload, r.Target)
	case RequestUndo:
		return d.undo(ctx, r.EntryID)
	case RequestClearHistory:
		d.releaseEntries(ctx, d.history.Clear())
		return Result{}, d.persist(ctx)
	case RequestSwitchPlaylist:
		if err := d.player.SwitchPlaylist(ctx, r.Playlist); err != nil {
			return Result{}, err
		}
		return Result{Playlist: r.Playlist}, d.persist(ctx)
	case RequestSelect:
		if r.Toggle {
			for _, p := range r.Positions {
				d.player.ToggleSelection(p)
			}
		} else {
			d.player.SelectPositions(r.Positions...)
		}
		return Result{}, nil
	case RequestDeselect:
		d.player.Deselect()
		return Result{}, nil
	case RequestSetVolume:
		if err := d.player.SetVolume(r.Volume); err != nil {
			return Result{}, err
		}
		return Result{}, d.persist(ctx)
	case RequestPlayTrack:
		return Result{}, d.player.Select(ctx, r.Position)
	case RequestSeek:
		return Result{}, d.player.Seek(r.Seconds)
	case RequestPlayback:
		return Result{}, d.playback(ctx, r.Command)
	default:
		return Result{}, domain.NewValidationError("request", fmt.Sprintf("%T", req), "unsupported request")
	}
}

func (d *Deck) playback(ctx context.Context, cmd PlaybackCommand) error {
	switch cmd {
	case CommandPlay:
		return d.player.Play(ctx)
	case CommandPause:
		return d.player.Pause()
	case CommandTogglePlay:
		return d.player.TogglePlay(ctx)
	case CommandStop:
		d.player.Stop()
		return nil
	case CommandNext:
		return d.player.Next(ctx)
	case CommandPrevious:
		return d.player.Previous(ctx)
	case CommandToggleMute:
		return d.player.ToggleMute()
	case CommandCycleRepeat:
		d.player.CycleRepeat()
		return nil
	case CommandToggleShuffle:
		d.player.ToggleShuffle()
		return nil
	default:
		return domain.NewValidationError("command", fmt.Sprint(cmd), "unknown playback command")
	}
}

// ingestFiles processes files strictly one at a time: each is stored, appended,
// logged and flushed, and its events published, before the next one starts.
func (d *Deck) ingestFiles(ctx context.Context, files []IngestFile) (Result, error) {
	d.ingestMu.Lock()
	defer d.ingestMu.Unlock()

	var res Result
	err := Sequentially(ctx, files, func(ctx context.Context, _ int, f IngestFile) error {
		d.mu.Lock()
		if err := d.usable(); err != nil {
			d.mu.Unlock()
			return err
		}
		track, err := d.ingestOne(ctx, f)
		d.mu.Unlock()
		d.events.Flush()

		if err != nil {
			res.Failures = append(res.Failures, err)
			return nil
		}
		res.Tracks = append(res.Tracks, *track)
		return nil
	})
	return res, err
}

func (d *Deck) ingestOne(ctx context.Context, f IngestFile) (*domain.Track, error) {
	track, err := d.tracks.Ingest(ctx, f.Data, f.Name)
	if err != nil {
		if errors.Is(err, domain.ErrStorage) {
			d.storageFailed("ingest "+f.Name, err)
		}
		return nil, err
	}

	queue := domain.QueueKey()
	wasEmpty := d.playlists.Len(queue) == 0
	pos, _ := d.playlists.Append(queue, track)

	entry := d.history.Record(domain.ActionTrackAdd, domain.ActionPayload{
		PlaylistID: queue.ID(),
		Tracks:     []domain.ActionTrack{{ID: track.ID, Name: track.Name, Position: pos}},
	})
	d.events.Add(
		domain.NewTrackIngestedEvent(*track, queue, pos),
		domain.NewActionRecordedEvent(entry),
	)
	d.playlistUpdated(queue)
	_ = d.persist(ctx)

	if wasEmpty && d.player.Viewed().IsQueue() {
		if err := d.player.LoadTrack(ctx, 0); err != nil {
			d.logger.Warn("ingested track not loadable", slog.Any("error", err))
		}
	}
	return track, nil
}

func (d *Deck) createPlaylist(ctx context.Context, name, cover string) (Result, error) {
	key, err := d.playlists.CreatePlaylist(name, cover)
	if err != nil {
		return Result{}, err
	}
	entry := d.history.Record(domain.ActionPlaylistCreate, domain.ActionPayload{PlaylistID: key.ID()})
	d.events.Add(
		domain.NewPlaylistCreatedEvent(key, name),
		domain.NewActionRecordedEvent(entry),
	)
	return Result{Playlist: key, Entry: &entry}, d.persist(ctx)
}

// deletePlaylist detaches the playlist and logs its snapshot. Blobs stay until
// the log entry is evicted or cleared, so the delete can be undone.
func (d *Deck) deletePlaylist(ctx context.Context, key domain.PlaylistKey) (Result, error) {
	p, ok := d.playlists.Get(key)
	name := ""
	if ok {
		name = p.Name
	}
	snapshot, err := d.playlists.Detach(key)
	if err != nil {
		return Result{}, err
	}

	if d.player.Viewed() == key {
		if err := d.player.SwitchPlaylist(ctx, domain.QueueKey()); err != nil {
			return Result{}, err
		}
	}

	entry := d.history.Record(domain.ActionPlaylistDelete, domain.ActionPayload{
		PlaylistID: key.ID(),
		Playlist:   &snapshot,
	})
	d.events.Add(
		domain.NewPlaylistDeletedEvent(key, name),
		domain.NewActionRecordedEvent(entry),
	)
	return Result{Playlist: key, Entry: &entry}, d.persist(ctx)
}

// removeTrack takes one track out of a playlist. Its handle is released but the
// blob is kept for an undo.
func (d *Deck) removeTrack(ctx context.Context, key domain.PlaylistKey, pos int) (Result, error) {
	if !d.playlists.Exists(key) {
		return Result{}, domain.NewNotFoundError("playlist", key.ID())
	}
	removed, positions := d.playlists.RemoveAt(key, pos)
	if len(removed) == 0 {
		return Result{}, domain.ErrInvalidIndex
	}
	track := removed[0]
	d.tracks.Dispose(track)

	if err := d.player.Settle(ctx, false); err != nil {
		d.logger.Warn("reloading after remove failed", slog.Any("error", err))
	}

	entry := d.history.Record(domain.ActionTrackRemove, domain.ActionPayload{
		PlaylistID: key.ID(),
		Tracks: []domain.ActionTrack{{
			ID:              track.ID,
			Name:            track.Name,
			DurationSeconds: track.DurationSeconds,
			Position:        positions[0],
		}},
	})
	d.events.Add(domain.NewActionRecordedEvent(entry))
	d.playlistUpdated(key)
	return Result{Entry: &entry}, d.persist(ctx)
}

func (d *Deck) clearPlaylist(ctx context.Context, key domain.PlaylistKey) (Result, error) {
	if !d.playlists.Exists(key) {
		return Result{}, domain.NewNotFoundError("playlist", key.ID())
	}
	removed, err := d.playlists.Clear(ctx, key)
	if err != nil {
		d.storageFailed("clear "+key.ID(), err)
	}

	if settleErr := d.player.Settle(ctx, false); settleErr != nil {
		d.logger.Warn("stopping after clear failed", slog.Any("error", settleErr))
	}
	d.playlistUpdated(key)
	d.logger.Info("playlist cleared", slog.String("id", key.ID()), slog.Int("tracks", len(removed)))
	return Result{Playlist: key}, errors.Join(err, d.persist(ctx))
}

func (d *Deck) move(ctx context.Context, source domain.PlaylistKey, positions []int, target domain.PlaylistKey) (Result, error) {
	moved, ok := d.transfer.MoveMany(source, positions, target)
	if !ok {
		return Result{}, nil
	}

	if err := d.player.Settle(ctx, true); err != nil {
		d.logger.Warn("reloading after move failed", slog.Any("error", err))
	}
	d.player.Deselect()

	entry := d.history.Record(domain.ActionTrackMove, domain.ActionPayload{
		SourceID: source.ID(),
		TargetID: target.ID(),
		Tracks:   moved.ActionTracks(),
	})
	d.events.Add(domain.NewActionRecordedEvent(entry))
	d.playlistUpdated(source)
	d.playlistUpdated(target)
	return Result{Entry: &entry, Moved: len(moved.Tracks)}, d.persist(ctx)
}

type dragPayload struct {
	Index  *int   `json:"index"`
	Source string `json:"source"`
}

// ParseDragPayload decodes a serialized drag payload.
func ParseDragPayload(raw []byte) (domain.PlaylistKey, int, error) {
	var p dragPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.PlaylistKey{}, 0, domain.NewValidationError("payload", string(raw), "malformed drag payload")
	}
	if p.Index == nil || p.Source == "" {
		return domain.PlaylistKey{}, 0, domain.NewValidationError("payload", string(raw), "drag payload needs index and source")
	}
	return domain.ParseKey(p.Source), *p.Index, nil
}

func (d *Deck) drop(ctx context.Context, raw []byte, target domain.PlaylistKey) (Result, error) {
	source, index, err := ParseDragPayload(raw)
	if err != nil {
		return Result{}, err
	}
	return d.move(ctx, source, []int{index}, target)
}

func (d *Deck) undo(ctx context.Context, id string) (Result, error) {
	if id == "" {
		latest, ok := d.history.Latest()
		if !ok {
			return Result{}, fmt.Errorf("%w: nothing to undo", domain.ErrNotUndoable)
		}
		id = latest.ID
	}

	entry, err := d.history.Undo(ctx, id)
	if err != nil {
		return Result{}, err
	}
	d.events.Add(domain.NewActionUndoneEvent(entry))
	res := Result{Entry: &entry}
	if entry.Payload.PlaylistID != "" {
		res.Playlist = domain.ParseKey(entry.Payload.PlaylistID)
	}
	return res, d.persist(ctx)
}

// persist writes both documents. A failure is reported as a StorageFailedEvent;
// in-memory state is kept.
func (d *Deck) persist(ctx context.Context) error {
	queue, playlists := d.playlists.Document()
	volume := d.player.Volume()
	doc := domain.LibraryDocument{
		Version:           domain.LibraryDocumentVersion,
		Queue:             queue,
		Playlists:         playlists,
		CurrentPlaylistID: d.player.Viewed().ID(),
		Volume:            &volume,
	}
	err := errors.Join(
		d.sync.Save(ctx, doc),
		d.sync.SaveLog(ctx, d.history.Document()),
	)
	if err != nil {
		d.storageFailed("save", err)
	}
	return err
}

func (d *Deck) storageFailed(op string, err error) {
	d.logger.Error("storage failure", slog.String("op", op), slog.Any("error", err))
	d.events.Add(domain.NewStorageFailedEvent(op, err))
}

func (d *Deck) playlistUpdated(key domain.PlaylistKey) {
	if !d.playlists.Exists(key) || !d.bus.HasSubscribers(domain.EventPlaylistUpdated) {
		return
	}
	tracks := d.playlists.Tracks(key)
	out := make([]domain.Track, len(tracks))
	for i, t := range tracks {
		out[i] = *t
	}
	d.events.Add(domain.NewPlaylistUpdatedEvent(key, out))
}

// releaseEntries deletes blobs that only the given, now unreachable, entries
// could have brought back.
func (d *Deck) releaseEntries(ctx context.Context, entries []domain.ActionLogEntry) {
	var ids []string
	for _, e := range entries {
		if e.Undoable {
			ids = append(ids, e.Payload.TrackIDs()...)
		}
	}
	d.purgeOrphans(ctx, ids, "")
}

// purgeOrphans deletes the blobs of ids held by no playlist and needed by no
// undoable entry other than except.
func (d *Deck) purgeOrphans(ctx context.Context, ids []string, except string) {
	if len(ids) == 0 {
		return
	}
	pending := make(map[string]struct{})
	for _, e := range d.history.Entries() {
		if !e.Undoable || e.ID == except {
			continue
		}
		for _, id := range e.Payload.TrackIDs() {
			pending[id] = struct{}{}
		}
	}

	for _, id := range ids {
		if _, ok := pending[id]; ok || d.playlists.Contains(id) {
			continue
		}
		if err := d.tracks.PurgeID(ctx, id); err != nil {
			d.storageFailed("purge "+id, err)
		}
	}
}

// CollectGarbage deletes stored blobs that no playlist holds and no undoable
// entry references, such as payloads left behind by an interrupted session.
// Backends that cannot enumerate keys report zero.
func (d *Deck) CollectGarbage(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer func() {
		d.mu.Unlock()
		d.events.Flush()
	}()
	if err := d.usable(); err != nil {
		return 0, err
	}

	keys, supported, err := d.blobs.Keys(ctx)
	if err != nil || !supported {
		return 0, err
	}
	pending := d.history.PendingTrackIDs()
	removed := 0
	for _, id := range keys {
		if _, ok := pending[id]; ok || d.playlists.Contains(id) {
			continue
		}
		if err := d.tracks.PurgeID(ctx, id); err != nil {
			return removed, err
		}
		removed++
	}
	if removed > 0 {
		d.logger.Info("orphaned blobs removed", slog.Int("count", removed))
	}
	return removed, nil
}

// Playlists returns copies of every playlist, the queue first.
func (d *Deck) Playlists() []domain.Playlist {
	d.mu.Lock()
	defer d.mu.Unlock()
	all := d.playlists.Playlists()
	out := make([]domain.Playlist, len(all))
	for i, p := range all {
		out[i] = copyPlaylist(p)
	}
	return out
}

// Playlist returns a copy of the playlist with key.
func (d *Deck) Playlist(key domain.PlaylistKey) (domain.Playlist, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.playlists.Get(key)
	if !ok {
		return domain.Playlist{}, false
	}
	return copyPlaylist(p), true
}

// State returns the player state.
func (d *Deck) State() domain.SessionState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.player.State()
}

// History returns the action log, oldest first.
func (d *Deck) History() []domain.ActionLogEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.history.Entries()
}

// LiveHandles returns the number of playback handles currently open.
func (d *Deck) LiveHandles() int {
	return d.blobs.LiveHandles()
}

func copyPlaylist(p *domain.Playlist) domain.Playlist {
	c := *p
	c.Tracks = make([]*domain.Track, len(p.Tracks))
	for i, t := range p.Tracks {
		tc := *t
		c.Tracks[i] = &tc
	}
	return c
}
