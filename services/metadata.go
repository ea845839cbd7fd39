package services

import (
	"fmt"
	"math"

	"waveplay/config"
	"waveplay/types"
)

// DecideRender applies the metadata display decision table. Folder mode
// never shows inline metadata, since no single file visually owns the
// page; metadata there is opt-in per file through the panel request path.
func DecideRender(mode types.ContextMode, opts config.PlayerOptions) types.RenderDecision {
	switch mode {
	case types.ContextFolder:
		return types.RenderSuppressed
	case types.ContextSingle:
		if opts.ShowMetadataTableSingle {
			return types.RenderInlineTable
		}
		if opts.UseCoverartBackground {
			return types.RenderBackgroundOnly
		}
		return types.RenderSuppressed
	default:
		return types.RenderSuppressed
	}
}

// BuildRecord assembles the ordered display record: technical base rows
// first (always present), then non-empty tag rows, then artwork. Empty
// source values never produce rows.
func BuildRecord(facts types.TechnicalFacts, tags types.TagResult) *types.MetadataRecord {
	record := &types.MetadataRecord{}

	record.Append("File Name", facts.FileName)
	record.Append("Duration", FormatTime(facts.Duration))
	record.Append("File Type", facts.FileType)
	if facts.SampleRate > 0 {
		record.Append("Sample Rate", fmt.Sprintf("%d Hz", facts.SampleRate))
	}
	if facts.Channels > 0 {
		record.Append("Channels", fmt.Sprintf("%d", facts.Channels))
	}

	for _, field := range TagOrder() {
		if field == "Bit Rate" && facts.BitRate > 0 {
			record.Append(field, fmt.Sprintf("%d kbps", facts.BitRate))
			continue
		}
		if value, ok := tags.Tags[field]; ok {
			record.Append(field, value)
		}
	}

	if tags.Artwork != nil {
		record.Append("Artwork", tags.Artwork.DataURI())
	}

	return record
}

// FormatTime renders seconds as m:ss
func FormatTime(sec float64) string {
	if sec < 0 || math.IsNaN(sec) || math.IsInf(sec, 0) {
		sec = 0
	}
	m := int(sec) / 60
	s := int(sec) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}
