package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	subID := int64(7)

	m := Metadata{
		Title:                    "Release Notes",
		RemoteID:                 42,
		CollectionID:             3,
		SubCollectionID:          &subID,
		CollectionName:           "Engineering",
		CollectionDescription:    "Team docs",
		SubCollectionName:        "Releases",
		SubCollectionDescription: "Per-version notes",
		Created:                  "2026-01-02T10:00:00Z",
		Updated:                  "2026-01-03T11:30:00Z",
		LastSynced:               "2026-01-03T12:00:00Z",
	}
	body := []byte("# Release Notes\n\nShipped the thing.\n")

	got, gotBody := Parse(Serialize(m, body))

	assert.Equal(t, m, got)
	assert.Equal(t, body, gotBody)
}

func TestParse_RoundTripMinimal(t *testing.T) {
	m := Metadata{
		Title:        "Note",
		RemoteID:     1,
		CollectionID: 2,
		Created:      "2026-01-01T00:00:00Z",
		Updated:      "2026-01-01T00:00:00Z",
		LastSynced:   "2026-01-01T00:00:01Z",
	}

	got, body := Parse(Serialize(m, []byte("hello\n")))

	assert.Equal(t, m, got)
	assert.Nil(t, got.SubCollectionID)
	assert.Equal(t, "hello\n", string(body))
}

func TestParse_NoBlock(t *testing.T) {
	content := []byte("# Just a document\n\nNo metadata here.\n")

	m, body := Parse(content)

	assert.Equal(t, Metadata{}, m)
	assert.Equal(t, content, body)
	assert.False(t, m.Tracked())
}

func TestParse_UnclosedBlock(t *testing.T) {
	content := []byte("---\ntitle: \"Dangling\"\nremote_id: 5\n")

	m, body := Parse(content)

	assert.Equal(t, Metadata{}, m)
	assert.Equal(t, content, body)
}

func TestParse_IllFormedYAML(t *testing.T) {
	content := []byte("---\ntitle: [unbalanced\n---\nbody\n")

	m, body := Parse(content)

	assert.Equal(t, Metadata{}, m)
	assert.Equal(t, content, body)
}

func TestParse_UnknownKeysIgnored(t *testing.T) {
	content := []byte("---\ntitle: \"Note\"\nremote_id: 9\ncollection_id: 1\nfuture_field: \"whatever\"\ncreated: \"\"\nupdated: \"\"\nlast_synced: \"\"\n---\nbody\n")

	m, body := Parse(content)

	assert.Equal(t, int64(9), m.RemoteID)
	assert.Equal(t, "Note", m.Title)
	assert.Equal(t, "body\n", string(body))
}

func TestParse_CRLF(t *testing.T) {
	content := []byte("---\r\ntitle: \"Note\"\r\nremote_id: 4\r\ncollection_id: 2\r\n---\r\nbody line\r\n")

	m, body := Parse(content)

	require.Equal(t, int64(4), m.RemoteID)
	assert.Equal(t, "body line\r\n", string(body))
}

func TestParse_BodyContainingDelimiter(t *testing.T) {
	m := Metadata{Title: "Note", RemoteID: 1, CollectionID: 1}
	body := []byte("intro\n\n---\n\na horizontal rule above\n")

	got, gotBody := Parse(Serialize(m, body))

	assert.Equal(t, int64(1), got.RemoteID)
	assert.Equal(t, body, gotBody)
}

func TestParse_SpecialCharactersInTitle(t *testing.T) {
	m := Metadata{
		Title:        `Spec: "quotes" & colons`,
		RemoteID:     11,
		CollectionID: 2,
	}

	got, _ := Parse(Serialize(m, nil))

	assert.Equal(t, m.Title, got.Title)
}

func TestParseHeader(t *testing.T) {
	m := Metadata{Title: "Note", RemoteID: 8, CollectionID: 3, LastSynced: "2026-01-01T00:00:00Z"}
	full := Serialize(m, []byte("a very long body that a header read would truncate\n"))

	got, ok := ParseHeader(full)

	require.True(t, ok)
	assert.Equal(t, int64(8), got.RemoteID)
	assert.Equal(t, "2026-01-01T00:00:00Z", got.LastSynced)
}

func TestParseHeader_TruncatedBeforeClose(t *testing.T) {
	prefix := []byte("---\ntitle: \"Note\"\nremote_id: 8\n")

	_, ok := ParseHeader(prefix)

	assert.False(t, ok)
}

func TestParseHeader_TruncatedBody(t *testing.T) {
	// A header read may cut the body mid-line; the block itself is intact.
	full := Serialize(Metadata{Title: "Note", RemoteID: 8, CollectionID: 1}, []byte("body text"))
	prefix := full[:len(full)-4]

	got, ok := ParseHeader(prefix)

	require.True(t, ok)
	assert.Equal(t, int64(8), got.RemoteID)
}

func TestTracked(t *testing.T) {
	assert.False(t, Metadata{}.Tracked())
	assert.False(t, Metadata{RemoteID: 0}.Tracked())
	assert.True(t, Metadata{RemoteID: 1}.Tracked())
}
