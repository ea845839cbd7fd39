package services

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"waveplay/types"

	"github.com/dhowden/tag"
	"github.com/mewkiz/flac"
)

// tagReadFunc is the underlying tag-reading capability: given an audio
// byte source it yields a raw tag map and optional artwork
type tagReadFunc func(src io.ReadSeeker) (map[string]string, *types.Artwork, error)

// BackgroundSink receives raw artwork when cover-art background is enabled
type BackgroundSink func(*types.Artwork)

// tagFieldOrder is the display order of tag rows. Fields missing or
// empty in the source are skipped.
var tagFieldOrder = []string{
	"Title", "Artist", "Album", "Year", "Genre", "Comment", "Track", "Composer",
	"Publisher", "Encoded By", "Copyright", "Bit Rate",
}

// TagService wraps the tag-reading capability. The capability is loaded
// lazily on first use; concurrent callers share one load. Extraction
// failures degrade to an empty tag set so that the caller's technical
// facts stay displayable; tag trouble never blocks the player.
type TagService struct {
	once       sync.Once
	read       tagReadFunc
	background BackgroundSink
}

// NewTagService creates a tag service. background may be nil when no
// cover-art background sink exists.
func NewTagService(background BackgroundSink) *TagService {
	return &TagService{background: background}
}

// Extract reads tags from src. setBackground forwards raw artwork to the
// background sink, independent of whether a tag table is shown.
func (t *TagService) Extract(src io.ReadSeeker, setBackground bool) types.TagResult {
	t.once.Do(func() {
		if t.read == nil {
			t.read = readTagsFrom
		}
	})

	result := types.TagResult{Tags: map[string]string{}}

	raw, artwork, err := t.read(src)
	if err != nil {
		log.Printf("Warning: tag extraction failed: %v", err)
		return result
	}

	for key, value := range raw {
		if strings.TrimSpace(value) == "" {
			continue
		}
		result.Tags[key] = value
	}
	result.Artwork = artwork

	if artwork != nil && setBackground && t.background != nil {
		t.background(artwork)
	}

	return result
}

// TagOrder returns the display order of tag fields
func TagOrder() []string {
	return tagFieldOrder
}

// readTagsFrom is the default capability, backed by dhowden/tag
func readTagsFrom(src io.ReadSeeker) (map[string]string, *types.Artwork, error) {
	m, err := tag.ReadFrom(src)
	if err != nil {
		return nil, nil, fmt.Errorf("could not parse audio tags: %w", err)
	}

	raw := map[string]string{
		"Title":    m.Title(),
		"Artist":   m.Artist(),
		"Album":    m.Album(),
		"Genre":    m.Genre(),
		"Comment":  m.Comment(),
		"Composer": m.Composer(),
	}
	if year := m.Year(); year != 0 {
		raw["Year"] = strconv.Itoa(year)
	}
	if track, _ := m.Track(); track != 0 {
		raw["Track"] = strconv.Itoa(track)
	}

	// The less common fields have no accessor on the Metadata interface
	// and sit under format-specific frame names in the raw map
	frames := m.Raw()
	raw["Publisher"] = frameText(frames, "TPUB", "TPB", "publisher")
	raw["Encoded By"] = frameText(frames, "TENC", "TEN", "encodedby", "encoded-by", "encoder", "©too")
	raw["Copyright"] = frameText(frames, "TCOP", "TCR", "copyright", "cprt")

	var artwork *types.Artwork
	if pic := m.Picture(); pic != nil && len(pic.Data) > 0 {
		artwork = &types.Artwork{MIME: pic.MIMEType, Data: pic.Data}
	}

	return raw, artwork, nil
}

// frameText picks the first non-empty text value among the frame names
// the different tag formats use for one display field
func frameText(frames map[string]interface{}, names ...string) string {
	for _, name := range names {
		v, ok := frames[name]
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// ProbeFacts builds the technical base facts for an audio source. For
// FLAC sources the STREAMINFO block supplies sample rate, channels, and
// a duration fallback when the engine has not reported one.
func ProbeFacts(fileName string, data []byte, engineDuration float64) types.TechnicalFacts {
	facts := types.TechnicalFacts{
		FileName: fileName,
		Duration: engineDuration,
		FileType: fileTypeLabel(fileName),
	}

	if strings.EqualFold(filepath.Ext(fileName), ".flac") {
		if stream, err := flac.Parse(bytes.NewReader(data)); err != nil {
			log.Printf("Warning: could not parse FLAC stream info from %s: %v", fileName, err)
		} else {
			info := stream.Info
			facts.SampleRate = int(info.SampleRate)
			facts.Channels = int(info.NChannels)
			if facts.Duration == 0 && info.SampleRate > 0 {
				facts.Duration = float64(info.NSamples) / float64(info.SampleRate)
			}
			stream.Close()
		}
	}

	// Average container bit rate over the whole blob
	if facts.Duration > 0 && len(data) > 0 {
		facts.BitRate = int(math.Round(float64(len(data)) * 8 / facts.Duration / 1000))
	}

	return facts
}

func fileTypeLabel(fileName string) string {
	ext := strings.TrimPrefix(filepath.Ext(fileName), ".")
	if ext == "" {
		return "Audio"
	}
	return strings.ToUpper(ext)
}
