package service

import (
	"strings"
	"sync"

	"github.com/hvvlab/memeboard/internal/domain"
)

// Workspace is the shared in-memory meme collection behind the annotation
// board. List view, editor, and batch orchestrator all read and write through
// it: one owned copy, updated by replace-by-identifier, never two independent
// copies. The store remains the persistent truth; the workspace is the
// session's optimistic view, re-synchronized on the next full load.
type Workspace struct {
	mu         sync.RWMutex
	memes      []domain.AnnotatedMeme
	selectedID string
}

// NewWorkspace creates an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{}
}

// Load replaces the whole collection. The selection is kept when the selected
// meme still exists, otherwise it falls back to the first meme.
// Parameters:
//   - memes: full collection snapshot from the store.
func (w *Workspace) Load(memes []domain.AnnotatedMeme) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.memes = make([]domain.AnnotatedMeme, len(memes))
	copy(w.memes, memes)

	if _, ok := w.indexOf(w.selectedID); !ok {
		w.selectedID = ""
		if len(w.memes) > 0 {
			w.selectedID = w.memes[0].ID
		}
	}
}

// Add appends a newly created meme to the collection.
func (w *Workspace) Add(meme domain.AnnotatedMeme) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.memes = append(w.memes, meme)
	if w.selectedID == "" {
		w.selectedID = meme.ID
	}
}

// Replace swaps the meme with the same identifier for the given one. Unknown
// identifiers are ignored. The selection is identifier-based, so a replaced
// selected meme shows the new data immediately.
// Parameters:
//   - meme: updated meme record.
func (w *Workspace) Replace(meme domain.AnnotatedMeme) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if i, ok := w.indexOf(meme.ID); ok {
		w.memes[i] = meme
	}
}

// Get returns the meme with the given identifier.
// Parameters:
//   - id: meme identifier.
// Returns:
//   - domain.AnnotatedMeme: copy of the meme.
//   - bool: false if the identifier is unknown.
func (w *Workspace) Get(id string) (domain.AnnotatedMeme, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if i, ok := w.indexOf(id); ok {
		return w.memes[i], true
	}
	return domain.AnnotatedMeme{}, false
}

// Select moves the selection pointer.
// Parameters:
//   - id: meme identifier to select.
// Returns:
//   - bool: false if the identifier is unknown (selection unchanged).
func (w *Workspace) Select(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.indexOf(id); ok {
		w.selectedID = id
		return true
	}
	return false
}

// Selected returns the currently selected meme.
func (w *Workspace) Selected() (domain.AnnotatedMeme, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if i, ok := w.indexOf(w.selectedID); ok {
		return w.memes[i], true
	}
	return domain.AnnotatedMeme{}, false
}

// Snapshot returns a copy of the whole collection in order.
func (w *Workspace) Snapshot() []domain.AnnotatedMeme {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]domain.AnnotatedMeme, len(w.memes))
	copy(out, w.memes)
	return out
}

// ByStatus returns the memes whose status matches exactly, in collection
// order. This is the batch scope snapshot: memes changing status after the
// snapshot stay in the scope.
// Parameters:
//   - status: exact status to match.
// Returns:
//   - []domain.AnnotatedMeme: matching memes in order.
func (w *Workspace) ByStatus(status domain.AnnotationStatus) []domain.AnnotatedMeme {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var out []domain.AnnotatedMeme
	for _, m := range w.memes {
		if m.AnnotationStatus == status {
			out = append(out, m)
		}
	}
	return out
}

// Filter returns the memes matching a case-insensitive file name substring
// and a status. The status match is exact; "all" or empty matches every
// status.
// Parameters:
//   - search: substring of the file name; empty matches all.
//   - status: status filter; "all" or empty matches all.
// Returns:
//   - []domain.AnnotatedMeme: matching memes in order.
func (w *Workspace) Filter(search, status string) []domain.AnnotatedMeme {
	w.mu.RLock()
	defer w.mu.RUnlock()

	search = strings.ToLower(search)
	out := []domain.AnnotatedMeme{}
	for _, m := range w.memes {
		if search != "" && !strings.Contains(strings.ToLower(m.FileName), search) {
			continue
		}
		if status != "" && status != "all" && string(m.AnnotationStatus) != status {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Len returns the collection size.
func (w *Workspace) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.memes)
}

// indexOf must be called with the lock held.
func (w *Workspace) indexOf(id string) (int, bool) {
	if id == "" {
		return 0, false
	}
	for i := range w.memes {
		if w.memes[i].ID == id {
			return i, true
		}
	}
	return 0, false
}
