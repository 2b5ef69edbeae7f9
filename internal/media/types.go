// Package media implements the export pipeline: resolving a classified
// video reference into processable media, estimating trimmed-output sizes,
// and cutting segments with an external toolchain.
package media

// Purpose states why a source is being resolved. Preview resolution favors
// broadly playable codecs and may require extra request headers; Export and
// Estimate resolution favor sources the toolchain can cut directly.
type Purpose int

const (
	PurposePreview Purpose = iota
	PurposeEstimate
	PurposeExport
)

// Format selects the export output type.
type Format string

const (
	FormatVideo Format = "video"
	FormatAudio Format = "audio"
)

// ParseFormat normalizes a wire-level format string. An empty string means
// video; anything else unrecognized is rejected.
func ParseFormat(s string) (Format, bool) {
	switch s {
	case "", "video":
		return FormatVideo, true
	case "audio":
		return FormatAudio, true
	default:
		return "", false
	}
}

type SourceKind int

const (
	// SourceRemoteURL is a direct, time-seekable media URL. Headers, when
	// non-empty, must be attached on every fetch of the URL.
	SourceRemoteURL SourceKind = iota
	// SourceLocalFile is an owned, single-use temporary file. Whoever
	// requested it must delete it exactly once, success or failure.
	SourceLocalFile
)

// ResolvedSource is the Media Locator's output: either a remote URL (with
// optional mandatory headers) or a materialized local temp file.
type ResolvedSource struct {
	Kind    SourceKind
	URL     string
	Headers map[string]string
	Path    string
}

// TimeRange is a trim window in seconds.
type TimeRange struct {
	Start float64
	End   float64
}

func (r TimeRange) Duration() float64 {
	return r.End - r.Start
}

// Artifact is a finished trimmed export, held in memory only for the
// lifetime of the response that carries it.
type Artifact struct {
	Data        []byte
	ContentType string
	Filename    string
}
