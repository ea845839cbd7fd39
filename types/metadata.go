package types

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// RenderDecision is how (or whether) metadata is presented for the
// current viewing context and configuration
type RenderDecision string

const (
	RenderSuppressed     RenderDecision = "suppressed"
	RenderInlineTable    RenderDecision = "inline_table"
	RenderPanelTable     RenderDecision = "panel_table"
	RenderBackgroundOnly RenderDecision = "background_only"
)

// TechnicalFacts are the base facts known about an audio source without
// any tag parsing. They are always displayable, even when tag extraction
// fails entirely.
type TechnicalFacts struct {
	FileName   string  `json:"fileName"`
	Duration   float64 `json:"duration"`
	FileType   string  `json:"fileType"`
	SampleRate int     `json:"sampleRate,omitempty"`
	Channels   int     `json:"channels,omitempty"`
	BitRate    int     `json:"bitRate,omitempty"`
}

// Artwork is embedded cover art extracted from an audio container
type Artwork struct {
	MIME string `json:"mime"`
	Data []byte `json:"-"`
}

// DataURI returns the artwork as an inline-displayable data URI
func (a *Artwork) DataURI() string {
	return "data:" + a.MIME + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// TagResult is the outcome of tag extraction: a (possibly empty) tag map
// plus optional artwork. Extraction failures yield an empty result, never
// an error.
type TagResult struct {
	Tags    map[string]string `json:"tags"`
	Artwork *Artwork          `json:"artwork,omitempty"`
}

// MetadataRow is one display row of the metadata table
type MetadataRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// MetadataRecord is an ordered label/value mapping. Insertion order is
// display order. Rows with empty or whitespace-only values are dropped
// on append.
type MetadataRecord struct {
	rows []MetadataRow
}

// Append adds a row unless its value is empty or whitespace-only
func (r *MetadataRecord) Append(label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	r.rows = append(r.rows, MetadataRow{Label: label, Value: value})
}

// Rows returns the rows in insertion order
func (r *MetadataRecord) Rows() []MetadataRow {
	return r.rows
}

// Get looks up a row value by label
func (r *MetadataRecord) Get(label string) (string, bool) {
	for _, row := range r.rows {
		if row.Label == label {
			return row.Value, true
		}
	}
	return "", false
}

// Len returns the number of rows
func (r *MetadataRecord) Len() int {
	return len(r.rows)
}

// MarshalJSON renders the record as an ordered array of rows
func (r *MetadataRecord) MarshalJSON() ([]byte, error) {
	if r.rows == nil {
		return json.Marshal([]MetadataRow{})
	}
	return json.Marshal(r.rows)
}
