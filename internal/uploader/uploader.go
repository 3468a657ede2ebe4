// Orchestrates an upload: validation, reconciliation, dual persistence.

// Package uploader coordinates a place submission end to end: it validates
// the input, reconciles the candidate row against the user's ledger, and
// persists both the image and the ledger to the local store and the remote
// mirror. Remote failures become warnings on the result, never request
// failures, so the two sinks can diverge but the local state stays usable.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/r-Iyer/MapMyMemories/internal/geo"
	"github.com/r-Iyer/MapMyMemories/internal/ledger"
	"github.com/r-Iyer/MapMyMemories/internal/storage/git"
	"github.com/r-Iyer/MapMyMemories/internal/storage/github"
	"github.com/r-Iyer/MapMyMemories/internal/storage/local"
)

// ErrInvalidRequest is returned when a submission is missing its username,
// image, or a comma-separated latlong.
var ErrInvalidRequest = errors.New("invalid request data")

var whitespaceRuns = regexp.MustCompile(`\s+`)

// RemoteStore mirrors objects to the durable backend. Implemented by
// *github.Client; faked in tests.
type RemoteStore interface {
	Get(ctx context.Context, path string) (*github.Object, error)
	Put(ctx context.Context, path string, content []byte, message string) error
	RawURL(path string) string
}

// Auditor commits local changes to the data directory's history. Implemented
// by *git.Repo.
type Auditor interface {
	CommitPaths(ctx context.Context, author git.Author, msg string, paths []string) error
}

// Locator fills empty state/country fields from coordinates. Implemented by
// *geo.Autofiller.
type Locator interface {
	Locate(latitude, longitude string) (state, country string)
}

// Submission is one upload request after multipart decoding.
type Submission struct {
	Username  string
	Place     string
	State     string
	Country   string
	LatLong   string
	ImageName string // original file name; only the extension is kept
	ImageData []byte
}

// Result is the outcome of a successful upload. Warnings report remote-sink
// failures that did not fail the request, so callers can retry just the
// remote half.
type Result struct {
	Message        string
	Appended       bool
	ImageURL       string
	LedgerURL      string
	LocalImagePath string
	Warnings       []string
}

// Service is the upload orchestrator.
type Service struct {
	Local      *local.Store
	Remote     RemoteStore // nil disables remote mirroring
	Audit      Auditor     // nil disables the git audit trail
	Locator    Locator     // nil disables state/country autofill
	RemoteRoot string      // path prefix in the remote repository, e.g. "app/public"

	locks userLocks
}

// remotePath prefixes a base-relative path with the remote root.
func (s *Service) remotePath(rel string) string {
	if s.RemoteRoot == "" {
		return rel
	}
	return s.RemoteRoot + "/" + rel
}

// Upload runs the full submission flow. Validation failures return
// ErrInvalidRequest or geo.ErrInvalidLatLong; local persistence failures
// return an error; remote persistence failures are reported in
// Result.Warnings.
func (s *Service) Upload(ctx context.Context, sub Submission) (*Result, error) {
	// A latlong without a comma is a malformed request, not a coordinate
	// error; the distinction picks the 400 message.
	if sub.Username == "" || len(sub.ImageData) == 0 || !strings.Contains(sub.LatLong, ",") {
		return nil, ErrInvalidRequest
	}
	lat, lon, err := geo.ParseLatLong(sub.LatLong)
	if err != nil {
		return nil, err
	}

	// Derived image name: whitespace runs in the place become underscores,
	// the original extension is kept. Deliberately not uniquified: uploading
	// the same place name again replaces the photo.
	fileName := whitespaceRuns.ReplaceAllString(sub.Place, "_") + filepath.Ext(sub.ImageName)

	state, country := sub.State, sub.Country
	if s.Locator != nil && (state == "" || country == "") {
		locState, locCountry := s.Locator.Locate(lat, lon)
		if state == "" {
			state = locState
		}
		if country == "" {
			country = locCountry
		}
	}

	result := &Result{Message: "Upload successful!"}

	unlock := s.locks.acquire(sub.Username)
	defer unlock()

	localImagePath, err := s.Local.SaveImage(sub.Username, fileName, sub.ImageData)
	if err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}
	result.LocalImagePath = localImagePath

	relImage := local.RelImagePath(sub.Username, fileName)
	s.mirror(ctx, result, relImage, sub.ImageData, "Added image for "+sub.Place)

	rows := s.loadLedger(ctx, result, sub.Username)

	candidate := ledger.Record{
		Username:  sub.Username,
		Place:     sub.Place,
		State:     state,
		Country:   country,
		Latitude:  lat,
		Longitude: lon,
		Picture:   "/images/" + fileName,
	}
	rows, appended := ledger.Reconcile(rows, candidate)
	result.Appended = appended
	if !appended {
		slog.InfoContext(ctx, "Duplicate entry detected, skipping ledger append",
			"username", sub.Username, "place", sub.Place)
	}

	serialized, err := ledger.Serialize(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize ledger: %w", err)
	}
	if _, err := s.Local.WriteLedger(sub.Username, serialized); err != nil {
		return nil, fmt.Errorf("failed to write ledger: %w", err)
	}

	relLedger := local.RelLedgerPath(sub.Username)
	s.mirror(ctx, result, relLedger, serialized, "Updated places.csv for "+sub.Username)

	if s.Audit != nil {
		author := git.Author{Name: sub.Username, Email: sub.Username + "@mapmymemories.local"}
		msg := fmt.Sprintf("%s pinned %s", sub.Username, sub.Place)
		if err := s.Audit.CommitPaths(ctx, author, msg, []string{relImage, relLedger}); err != nil {
			slog.WarnContext(ctx, "Failed to commit audit trail", "err", err, "username", sub.Username)
		}
	}

	if s.Remote != nil {
		result.ImageURL = s.Remote.RawURL(s.remotePath(relImage))
		result.LedgerURL = s.Remote.RawURL(s.remotePath(relLedger))
	}
	return result, nil
}

// mirror pushes content to the remote store, converting failures into result
// warnings.
func (s *Service) mirror(ctx context.Context, result *Result, rel string, content []byte, message string) {
	if s.Remote == nil {
		return
	}
	path := s.remotePath(rel)
	if err := s.Remote.Put(ctx, path, content, message); err != nil {
		slog.WarnContext(ctx, "Remote write failed, local and remote stores have diverged",
			"path", path, "err", err)
		result.Warnings = append(result.Warnings, "remote write failed for "+rel)
	}
}

// loadLedger materializes the user's current rows: local file first, then the
// remote object, then empty. Only a definite remote miss is silent; a
// transient remote failure is logged and reported as a warning before falling
// back to empty.
func (s *Service) loadLedger(ctx context.Context, result *Result, username string) []ledger.Record {
	data, found, err := s.Local.ReadLedger(username)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read local ledger, treating as absent", "err", err, "username", username)
	}
	if !found && s.Remote != nil {
		switch obj, err := s.Remote.Get(ctx, s.remotePath(local.RelLedgerPath(username))); {
		case err == nil:
			data = obj.Content
			found = true
		case errors.Is(err, github.ErrNotFound):
			slog.InfoContext(ctx, "Ledger not found, creating a new one", "username", username)
		default:
			slog.WarnContext(ctx, "Remote ledger read failed, starting from empty", "err", err, "username", username)
			result.Warnings = append(result.Warnings, "remote ledger read failed; ledger rebuilt from local state")
		}
	}
	if !found {
		return nil
	}
	rows, err := ledger.Parse(data)
	if err != nil {
		slog.WarnContext(ctx, "Failed to parse ledger, starting from empty", "err", err, "username", username)
		return nil
	}
	return rows
}
