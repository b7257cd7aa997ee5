package blob

import (
	"fmt"
	"strings"
)

// SourceKind says where blob bytes come from.
type SourceKind int

const (
	SourceBytes SourceKind = iota
	SourceURL
	SourceFile
)

// Source is the input of an upload: a remote URL, a local file, or bytes
// already in memory.
type Source struct {
	Kind     SourceKind
	Location string
	Data     []byte
}

// URLSource downloads the blob from u before uploading.
func URLSource(u string) Source { return Source{Kind: SourceURL, Location: u} }

// FileSource reads the blob from a local path before uploading.
func FileSource(path string) Source { return Source{Kind: SourceFile, Location: path} }

// BytesSource uploads data as-is.
func BytesSource(data []byte) Source { return Source{Kind: SourceBytes, Data: data} }

// ParseSource treats http(s) URLs as remote sources and anything else as a
// local file path.
func ParseSource(s string) Source {
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return URLSource(s)
	}
	return FileSource(s)
}

func (s Source) String() string {
	switch s.Kind {
	case SourceURL:
		return s.Location
	case SourceFile:
		return "file:" + s.Location
	default:
		return fmt.Sprintf("%d bytes in memory", len(s.Data))
	}
}
