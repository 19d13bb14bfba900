package chat

import "sync"

// MessageLog is the ordered, append-only transcript of the conversation.
// It is the single source of truth for what is rendered. Entries are never
// removed; mutation happens only through Replace and Patch, which preserve
// position.
type MessageLog struct {
	mu      sync.Mutex
	entries []ChatEntry
}

// NewMessageLog returns an empty log.
func NewMessageLog() *MessageLog {
	return &MessageLog{}
}

// Append adds an entry at the end of the log.
func (l *MessageLog) Append(e ChatEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
}

// Replace swaps the entry with the given id for a new one, keeping its
// position. The replacement keeps the target id regardless of what the
// caller set. Returns false if no entry has that id.
func (l *MessageLog) Replace(id string, e ChatEntry) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.entries {
		if l.entries[i].ID == id {
			e.ID = id
			l.entries[i] = e
			return true
		}
	}
	return false
}

// Patch applies fn to the entry with the given id, in place.
func (l *MessageLog) Patch(id string, fn func(*ChatEntry)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.entries {
		if l.entries[i].ID == id {
			fn(&l.entries[i])
			return true
		}
	}
	return false
}

// PatchLast applies fn to the most recently appended entry matching pred.
func (l *MessageLog) PatchLast(pred func(ChatEntry) bool, fn func(*ChatEntry)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.entries) - 1; i >= 0; i-- {
		if pred(l.entries[i]) {
			fn(&l.entries[i])
			return true
		}
	}
	return false
}

// Get returns a copy of the entry with the given id.
func (l *MessageLog) Get(id string) (ChatEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.entries {
		if l.entries[i].ID == id {
			return l.entries[i], true
		}
	}
	return ChatEntry{}, false
}

// Last returns a copy of the most recent entry.
func (l *MessageLog) Last() (ChatEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return ChatEntry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Entries returns a snapshot of the transcript in insertion order.
func (l *MessageLog) Entries() []ChatEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ChatEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *MessageLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
