// Package ipfs provides a simulated content-addressed store.
// CIDs map to HTTP URLs in memory; network latency is simulated with delays.
package ipfs

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dhowden/tag"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/ports"
)

// Scheme is the locator scheme handled by this package.
const Scheme = "ipfs"

const soundFiles = "https://www2.cs.uic.edu/~i101/SoundFiles/"

// DefaultContent returns the CID to URL table of the built-in catalog.
func DefaultContent() map[string]string {
	return map[string]string{
		"QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG": soundFiles + "BabyElephantWalk60.wav",
		"QmZTR5bcpQD7cFgTorqxZDYaew1Wqgfbd2ud9QqGPAkK2V": soundFiles + "CantinaBand60.wav",
		"QmSgvgwxZGaBLqkGyWemEDqikCqU52XxsYLKtdy3vGZ8uq": soundFiles + "StarWars60.wav",
		"QmPChd2hVbrJ6bfo3WBcTW4iZnpHm8TEzWkLHmLpXhF68A": soundFiles + "ImperialMarch60.wav",
		"QmTDMoVqvyBkNMRhzvukTDznntByUNDwyNdSfV8dZ3VKRC": soundFiles + "PinkPanther30.wav",
		"QmPCawMTd7csXKf7QVrAFbHGiLPPn3qcjNBg1g6gWHkF3m": soundFiles + "tada.wav",
		"QmTkzDwWqPbnAh5YiV5VwcTLnGdwSNsNTn2aDxdXBFca7D": soundFiles + "StarWars3.wav",
		"QmbtFKnBuyUmRoFAoxEJxqZBCTamYeGnZ4MrHCLehWkHre": soundFiles + "gettysburg10.wav",
	}
}

// Options configures the simulated latencies.
type Options struct {
	ConnectDelay time.Duration
	FetchDelay   time.Duration
	UploadDelay  time.Duration
	PinDelay     time.Duration

	// GatewayURL prefixes the CID of uploaded content to form its URL.
	GatewayURL string

	// Content seeds the table; DefaultContent is used when nil.
	Content map[string]string
}

// DefaultOptions returns the latencies of the hosted gateway.
func DefaultOptions() Options {
	return Options{
		ConnectDelay: 500 * time.Millisecond,
		FetchDelay:   300 * time.Millisecond,
		UploadDelay:  1500 * time.Millisecond,
		PinDelay:     800 * time.Millisecond,
		GatewayURL:   "https://ipfs.io/ipfs/",
	}
}

// Content describes a stored object.
type Content struct {
	CID          string    `json:"cid"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	Type         string    `json:"type"`
	LastModified time.Time `json:"lastModified"`
	URL          string    `json:"url"`
}

// Service is the simulated IPFS node.
//
// Thread-safety: This implementation is thread-safe.
type Service struct {
	logger *slog.Logger
	opts   Options

	connectMu sync.Mutex
	mu        sync.RWMutex
	connected bool
	table     map[string]Content
	pinned    map[string]bool
}

// New creates a disconnected service. It connects lazily on first use.
func New(logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	seed := opts.Content
	if seed == nil {
		seed = DefaultContent()
	}
	table := make(map[string]Content, len(seed))
	for cid, url := range seed {
		table[cid] = Content{
			CID:  cid,
			Name: "ipfs-file-" + cid[:min(8, len(cid))],
			Type: typeOf(url),
			URL:  url,
		}
	}
	return &Service{
		logger: logger.With(slog.String("adapter", "ipfs")),
		opts:   opts,
		table:  table,
		pinned: make(map[string]bool),
	}
}

// Connect simulates joining the network. Concurrent callers wait for the same attempt.
func (s *Service) Connect(ctx context.Context) error {
	s.connectMu.Lock()
	defer s.connectMu.Unlock()

	if s.Connected() {
		return nil
	}
	if err := sleep(ctx, s.opts.ConnectDelay); err != nil {
		return err
	}

	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()
	s.logger.Info("connected to IPFS network")
	return nil
}

// Disconnect drops the simulated connection.
func (s *Service) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
}

// Connected reports whether Connect succeeded.
func (s *Service) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Stat returns the metadata of cid after a simulated fetch.
func (s *Service) Stat(ctx context.Context, cid string) (Content, error) {
	if err := s.Connect(ctx); err != nil {
		return Content{}, err
	}
	if err := sleep(ctx, s.opts.FetchDelay); err != nil {
		return Content{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.table[cid]
	if !ok {
		return Content{}, fmt.Errorf("cid %s: %w", cid, domain.ErrUnknownContent)
	}
	c.LastModified = time.Now()
	return c, nil
}

// Resolve implements ports.LocatorResolver for ipfs:// locators.
func (s *Service) Resolve(ctx context.Context, locator string) (string, error) {
	cid, ok := strings.CutPrefix(locator, Scheme+"://")
	if !ok {
		return "", domain.NewResolutionError(locator, domain.ErrUnsupportedScheme)
	}

	c, err := s.Stat(ctx, cid)
	if err != nil {
		return "", domain.NewResolutionError(locator, err)
	}
	s.logger.Debug("resolved", slog.String("cid", cid), slog.String("url", c.URL))
	return c.URL, nil
}

// CIDToURL looks cid up without any simulated delay.
func (s *Service) CIDToURL(cid string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.table[cid]
	return c.URL, ok
}

// Upload stores the content of r under a new CID and returns it.
// The CID is derived from the audio payload so re-tagging a file does not change it.
func (s *Service) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := s.Connect(ctx); err != nil {
		return "", err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	if err := sleep(ctx, s.opts.UploadDelay); err != nil {
		return "", err
	}

	cid := ContentID(data)
	s.mu.Lock()
	s.table[cid] = Content{
		CID:          cid,
		Name:         name,
		Size:         int64(len(data)),
		Type:         typeOf(name),
		LastModified: time.Now(),
		URL:          strings.TrimSuffix(s.opts.GatewayURL, "/") + "/" + cid,
	}
	s.mu.Unlock()

	s.logger.Info("uploaded", slog.String("name", name), slog.String("cid", cid), slog.Int("bytes", len(data)))
	return cid, nil
}

// Store implements ports.ContentStore. It uploads r and returns its ipfs:// locator.
func (s *Service) Store(ctx context.Context, name string, r io.Reader) (string, error) {
	cid, err := s.Upload(ctx, name, r)
	if err != nil {
		return "", err
	}
	return Scheme + "://" + cid, nil
}

// Pin reports whether cid is stored, after a simulated delay. Known CIDs stay pinned.
func (s *Service) Pin(ctx context.Context, cid string) (bool, error) {
	if err := s.Connect(ctx); err != nil {
		return false, err
	}
	if err := sleep(ctx, s.opts.PinDelay); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.table[cid]; !ok {
		return false, nil
	}
	s.pinned[cid] = true
	return true, nil
}

// ContentID derives a CID-shaped identifier from an audio payload.
// Tagged audio hashes only the audio frames; anything else hashes every byte.
func ContentID(data []byte) string {
	sum, err := tag.Sum(bytes.NewReader(data))
	if err != nil || sum == "" {
		h := sha256.Sum256(data)
		sum = hex.EncodeToString(h[:])
	}
	return "Qm" + sum
}

var audioTypes = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".m4a":  "audio/mp4",
}

func typeOf(name string) string {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := audioTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var (
	_ ports.LocatorResolver = (*Service)(nil)
	_ ports.ContentStore    = (*Service)(nil)
)
