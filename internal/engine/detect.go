package engine

import "time"

// DefaultBuffer is the default tolerance added to last_synced when
// detecting local edits. It absorbs filesystem timestamp coarseness and
// the write-then-stat race after the engine's own writes. The value is
// a deliberate tolerance, not a correctness guarantee, and is tunable
// via configuration.
const DefaultBuffer = time.Second

// detectChanges computes the two change signals that feed the decision
// table. lastSynced and remoteUpdated are the opaque timestamp strings
// stored in metadata and reported by the server; they are parsed here,
// at comparison time.
//
// A document that has never been reconciled (empty or unreadable
// last_synced) reports no local changes and a changed remote side, so
// the remote version is authoritative on first contact.
func detectChanges(lastSynced string, localMTime time.Time, remoteUpdated string, buffer time.Duration) (hasLocal, hasRemote bool) {
	ls, ok := parseTimestamp(lastSynced)
	if !ok {
		return false, true
	}

	hasLocal = localMTime.After(ls.Add(buffer))

	// An unparseable remote timestamp counts as unchanged: pulling on
	// every run would break idempotence, and the skip is recoverable as
	// soon as the server reports a sane value.
	ru, ok := parseTimestamp(remoteUpdated)
	hasRemote = ok && ru.After(ls)

	return hasLocal, hasRemote
}

// timestampLayouts are tried in order when parsing stored or
// server-reported timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
}

func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
