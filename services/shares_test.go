package services

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"waveplay/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestShare lays out a shares root with a manifest and returns the
// service over it
func newTestShare(t *testing.T, tokens map[string]string, layout map[string]string) ShareService {
	t.Helper()

	root := t.TempDir()
	for rel, content := range layout {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}

	manifest := filepath.Join(root, "shares.json")
	data, err := json.Marshal(tokens)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(manifest, data, 0644))

	return NewShareService(root, manifest)
}

func TestResolveClassifiesShares(t *testing.T) {
	service := newTestShare(t,
		map[string]string{
			"folderTok": "project",
			"audioTok":  "project/song.flac",
			"fileTok":   "project/notes.txt",
		},
		map[string]string{
			"project/song.flac": "flac-bytes",
			"project/notes.txt": "some notes",
		},
	)

	tests := []struct {
		name     string
		token    string
		expected types.ShareType
	}{
		{"folder share", "folderTok", types.ShareTypeFolder},
		{"audio file share", "audioTok", types.ShareTypeAudio},
		{"non-audio file share", "fileTok", types.ShareTypeFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := service.Resolve(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, node.Type())
			assert.NotEmpty(t, node.ShareID)
		})
	}
}

func TestResolveUnknownToken(t *testing.T) {
	service := newTestShare(t, map[string]string{}, nil)

	_, err := service.Resolve("missing")
	assert.ErrorIs(t, err, ErrShareNotFound)

	_, err = service.Resolve("")
	assert.ErrorIs(t, err, ErrShareNotFound)
}

func TestResolveShareIDIsStable(t *testing.T) {
	service := newTestShare(t,
		map[string]string{"tok": "a.mp3"},
		map[string]string{"a.mp3": "x"},
	)

	first, err := service.Resolve("tok")
	require.NoError(t, err)
	second, err := service.Resolve("tok")
	require.NoError(t, err)

	assert.Equal(t, first.ShareID, second.ShareID)
}

func TestStructureBucketsWellKnownFolders(t *testing.T) {
	service := newTestShare(t,
		map[string]string{"tok": "release"},
		map[string]string{
			"release/Audio/mix.flac":    "a",
			"release/FILES/readme.txt":  "b",
			"release/masters/final.wav": "c",
			"release/Stems/drums.wav":   "d",
			"release/Extras/bonus.mp3":  "e",
			"release/cover.jpg":         "f",
		},
	)

	structure, err := service.Structure("tok")
	require.NoError(t, err)

	// Well-known names match case-insensitively
	require.NotNil(t, structure.AudioFolder)
	assert.Equal(t, "Audio", structure.AudioFolder.Name)
	require.NotNil(t, structure.FilesFolder)
	assert.Equal(t, "FILES", structure.FilesFolder.Name)
	require.NotNil(t, structure.MastersFolder)
	assert.Equal(t, "masters", structure.MastersFolder.Name)
	require.NotNil(t, structure.StemsFolder)
	assert.Equal(t, "Stems", structure.StemsFolder.Name)

	require.Len(t, structure.OtherFolders, 1)
	assert.Equal(t, "Extras", structure.OtherFolders[0].Name)

	require.Len(t, structure.RootFiles, 1)
	assert.Equal(t, "cover.jpg", structure.RootFiles[0].Name)

	// Audio classification follows the MIME type
	require.Len(t, structure.AudioFolder.Files, 1)
	assert.True(t, structure.AudioFolder.Files[0].IsAudio)
	assert.Equal(t, "audio/flac", structure.AudioFolder.Files[0].MimeType)
	require.Len(t, structure.FilesFolder.Files, 1)
	assert.False(t, structure.FilesFolder.Files[0].IsAudio)
}

func TestStructureRejectsFileShare(t *testing.T) {
	service := newTestShare(t,
		map[string]string{"tok": "a.mp3"},
		map[string]string{"a.mp3": "x"},
	)

	_, err := service.Structure("tok")
	assert.ErrorIs(t, err, ErrNotAFolder)
}

func TestStructureFilePathsAreShareRelative(t *testing.T) {
	service := newTestShare(t,
		map[string]string{"tok": "release"},
		map[string]string{"release/Audio/mix.flac": "a"},
	)

	structure, err := service.Structure("tok")
	require.NoError(t, err)

	require.NotNil(t, structure.AudioFolder)
	require.Len(t, structure.AudioFolder.Files, 1)
	assert.Equal(t, "/Audio/mix.flac", structure.AudioFolder.Files[0].Path)
}

func TestOpenFileInsideFolderShare(t *testing.T) {
	service := newTestShare(t,
		map[string]string{"tok": "release"},
		map[string]string{"release/Audio/mix.flac": "flac-bytes"},
	)

	file, info, err := service.OpenFile("tok", "Audio/mix.flac")
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, int64(len("flac-bytes")), info.Size())
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "flac-bytes", string(content))
}

func TestOpenFileSingleFileShare(t *testing.T) {
	service := newTestShare(t,
		map[string]string{"tok": "song.mp3"},
		map[string]string{"song.mp3": "mp3-bytes"},
	)

	file, info, err := service.OpenFile("tok", "")
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, "song.mp3", info.Name())
}

func TestOpenFileRejectsTraversal(t *testing.T) {
	service := newTestShare(t,
		map[string]string{"tok": "release"},
		map[string]string{"release/a.mp3": "x"},
	)

	_, _, err := service.OpenFile("tok", "../shares.json")
	assert.Error(t, err)
}

func TestValidateFilePath(t *testing.T) {
	service := newTestShare(t, map[string]string{}, nil)

	assert.NoError(t, service.ValidateFilePath("Audio/mix.flac"))
	assert.Error(t, service.ValidateFilePath("../escape"))
	assert.Error(t, service.ValidateFilePath("/absolute"))
	assert.Error(t, service.ValidateFilePath("  "))
}

func TestContentType(t *testing.T) {
	service := newTestShare(t, map[string]string{}, nil)

	assert.Equal(t, "audio/flac", service.ContentType("a.FLAC"))
	assert.Equal(t, "audio/mpeg", service.ContentType("a.mp3"))
	assert.Equal(t, "application/ogg", service.ContentType("a.ogg"))
	assert.Equal(t, "application/octet-stream", service.ContentType("a.bin"))
}
