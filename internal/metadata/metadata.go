// Package metadata parses and serializes the per-document metadata block
// embedded at the top of each local document. It is pure: no I/O beyond
// the bytes it is given.
package metadata

import (
	"bytes"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// delimiter opens and closes the metadata block, on its own line.
const delimiter = "---"

// Metadata is the embedded record tracking a document's remote identity
// and sync timestamps. Timestamp fields are kept as opaque strings;
// comparison happens by parsing at comparison time, not at parse time.
type Metadata struct {
	Title                    string `yaml:"title"`
	RemoteID                 int64  `yaml:"remote_id"`
	CollectionID             int64  `yaml:"collection_id"`
	SubCollectionID          *int64 `yaml:"subcollection_id"`
	CollectionName           string `yaml:"collection_name"`
	CollectionDescription    string `yaml:"collection_description"`
	SubCollectionName        string `yaml:"subcollection_name"`
	SubCollectionDescription string `yaml:"subcollection_description"`
	Created                  string `yaml:"created"`
	Updated                  string `yaml:"updated"`
	LastSynced               string `yaml:"last_synced"`
}

// Tracked reports whether the document has a remote identity.
func (m Metadata) Tracked() bool {
	return m.RemoteID > 0
}

// Parse splits a leading metadata block from the remaining text. Absence
// of a valid block yields zero Metadata and the full content as body,
// never an error. Unknown keys inside the block are ignored.
func Parse(content []byte) (Metadata, []byte) {
	block, body, ok := splitBlock(content)
	if !ok {
		return Metadata{}, content
	}

	var m Metadata
	if err := yaml.Unmarshal(block, &m); err != nil {
		// Ill-formed metadata is treated as absence of metadata.
		return Metadata{}, content
	}

	return m, body
}

// ParseHeader parses only the metadata block from a (possibly truncated)
// prefix of a document. The body after the closing delimiter is ignored,
// so callers can pass the first few kilobytes of a file. Returns false
// when no complete block is present in the given bytes.
func ParseHeader(prefix []byte) (Metadata, bool) {
	block, _, ok := splitBlock(prefix)
	if !ok {
		return Metadata{}, false
	}

	var m Metadata
	if err := yaml.Unmarshal(block, &m); err != nil {
		return Metadata{}, false
	}

	return m, true
}

// splitBlock extracts the delimited block and the body following it.
func splitBlock(content []byte) (block, body []byte, ok bool) {
	if !bytes.HasPrefix(content, []byte(delimiter)) {
		return nil, nil, false
	}

	// Skip the rest of the opening line (could be "---\n" or "---\r\n").
	rest := content[len(delimiter):]

	idx := bytes.IndexByte(rest, '\n')
	if idx < 0 {
		return nil, nil, false
	}

	rest = rest[idx+1:]

	end := bytes.Index(rest, []byte("\n"+delimiter))
	if end < 0 {
		return nil, nil, false
	}

	block = rest[:end+1]

	body = rest[end+1+len(delimiter):]
	// Drop the line break terminating the closing delimiter line.
	body = bytes.TrimPrefix(body, []byte("\r"))
	body = bytes.TrimPrefix(body, []byte("\n"))

	return block, body, true
}

// Serialize prefixes body with the metadata block. Key order is
// deterministic; optional cached parent fields are only emitted when
// non-empty. Parse(Serialize(m, body)) reproduces every field m set.
func Serialize(m Metadata, body []byte) []byte {
	var b strings.Builder

	b.WriteString(delimiter)
	b.WriteByte('\n')

	writeString(&b, "title", m.Title)
	writeInt(&b, "remote_id", m.RemoteID)
	writeInt(&b, "collection_id", m.CollectionID)

	if m.SubCollectionID != nil {
		writeInt(&b, "subcollection_id", *m.SubCollectionID)
	}

	if m.CollectionName != "" {
		writeString(&b, "collection_name", m.CollectionName)
	}

	if m.CollectionDescription != "" {
		writeString(&b, "collection_description", m.CollectionDescription)
	}

	if m.SubCollectionName != "" {
		writeString(&b, "subcollection_name", m.SubCollectionName)
	}

	if m.SubCollectionDescription != "" {
		writeString(&b, "subcollection_description", m.SubCollectionDescription)
	}

	writeString(&b, "created", m.Created)
	writeString(&b, "updated", m.Updated)
	writeString(&b, "last_synced", m.LastSynced)

	b.WriteString(delimiter)
	b.WriteByte('\n')
	b.Write(body)

	return []byte(b.String())
}

// writeString emits a double-quoted scalar. Go string quoting is a
// compatible subset of YAML double-quoted style for the values stored
// here (titles, names, RFC 3339 timestamps).
func writeString(b *strings.Builder, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(strconv.Quote(value))
	b.WriteByte('\n')
}

func writeInt(b *strings.Builder, key string, value int64) {
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(strconv.FormatInt(value, 10))
	b.WriteByte('\n')
}
