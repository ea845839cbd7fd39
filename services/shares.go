package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"waveplay/types"

	"github.com/google/uuid"
)

var (
	// ErrShareNotFound means the token does not map to any shared node
	ErrShareNotFound = errors.New("share not found")
	// ErrNotAFolder means a folder operation hit a file share
	ErrNotAFolder = errors.New("not a folder share")
)

// ShareService resolves share tokens to nodes and enumerates shared
// folder trees
type ShareService interface {
	Resolve(token string) (*types.ShareNode, error)
	Structure(token string) (*types.OrganizedStructure, error)
	OpenFile(token, relPath string) (*os.File, os.FileInfo, error)
	OpenStream(token, relPath string) (io.ReadCloser, int64, error)
	ContentType(filePath string) string
	ValidateFilePath(filePath string) error
}

// shareService implements ShareService against a manifest file mapping
// tokens to paths under a shares root
type shareService struct {
	root     string
	manifest string
}

// NewShareService creates a share service for the given root and
// manifest path
func NewShareService(root, manifestPath string) ShareService {
	return &shareService{root: root, manifest: manifestPath}
}

// loadManifest reads the token map fresh on every resolution, so edits
// take effect without a restart
func (s *shareService) loadManifest() (map[string]string, error) {
	data, err := os.ReadFile(s.manifest)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read share manifest: %w", err)
	}

	var tokens map[string]string
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse share manifest: %w", err)
	}
	return tokens, nil
}

// Resolve maps a share token to its node on disk
func (s *shareService) Resolve(token string) (*types.ShareNode, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrShareNotFound
	}

	tokens, err := s.loadManifest()
	if err != nil {
		return nil, err
	}

	relPath, ok := tokens[token]
	if !ok {
		return nil, ErrShareNotFound
	}
	if err := s.ValidateFilePath(relPath); err != nil {
		return nil, fmt.Errorf("invalid share target: %w", err)
	}

	absPath, err := s.resolveWithinRoot(relPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrShareNotFound
		}
		return nil, fmt.Errorf("failed to stat share target: %w", err)
	}

	node := &types.ShareNode{
		Token:    token,
		ShareID:  uuid.NewSHA1(uuid.NameSpaceURL, []byte(token)).String(),
		Name:     info.Name(),
		AbsPath:  absPath,
		IsFolder: info.IsDir(),
	}
	if !info.IsDir() {
		node.MimeType = s.ContentType(absPath)
	}
	return node, nil
}

// Structure resolves a token and enumerates its folder tree, bucketing
// the immediate children into the well-known display slots
func (s *shareService) Structure(token string) (*types.OrganizedStructure, error) {
	node, err := s.Resolve(token)
	if err != nil {
		return nil, err
	}
	if !node.IsFolder {
		return nil, ErrNotAFolder
	}

	tree, err := s.walkFolder(node.AbsPath, "/")
	if err != nil {
		return nil, err
	}
	return organizeStructure(tree), nil
}

// walkFolder recursively enumerates a folder into a FolderStructure
func (s *shareService) walkFolder(absPath, relPath string) (*types.FolderStructure, error) {
	result := &types.FolderStructure{
		Name:    filepath.Base(absPath),
		Path:    relPath,
		Folders: []*types.FolderStructure{},
		Files:   []types.FileEntry{},
	}

	entries, err := os.ReadDir(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", relPath, err)
	}

	// Stable listing order regardless of filesystem
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		childRel := path.Join(relPath, entry.Name())
		childAbs := filepath.Join(absPath, entry.Name())

		if entry.IsDir() {
			child, err := s.walkFolder(childAbs, childRel)
			if err != nil {
				return nil, err
			}
			result.Folders = append(result.Folders, child)
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		mimeType := s.ContentType(entry.Name())
		result.Files = append(result.Files, types.FileEntry{
			Name:      entry.Name(),
			Path:      childRel,
			Size:      info.Size(),
			MimeType:  mimeType,
			IsAudio:   types.IsAudioMime(mimeType),
			Extension: strings.TrimPrefix(filepath.Ext(entry.Name()), "."),
		})
	}

	return result, nil
}

// organizeStructure assigns immediate child folders to the named slots,
// case-insensitively; everything else lands in other_folders
func organizeStructure(tree *types.FolderStructure) *types.OrganizedStructure {
	organized := &types.OrganizedStructure{
		OtherFolders: []*types.FolderStructure{},
		RootFiles:    tree.Files,
	}

	for _, folder := range tree.Folders {
		switch strings.ToUpper(folder.Name) {
		case "AUDIO":
			organized.AudioFolder = folder
		case "FILES":
			organized.FilesFolder = folder
		case "MASTERS":
			organized.MastersFolder = folder
		case "STEMS":
			organized.StemsFolder = folder
		default:
			organized.OtherFolders = append(organized.OtherFolders, folder)
		}
	}

	return organized
}

// OpenFile opens a file within a share for streaming. relPath may be
// empty for single-file shares.
func (s *shareService) OpenFile(token, relPath string) (*os.File, os.FileInfo, error) {
	node, err := s.Resolve(token)
	if err != nil {
		return nil, nil, err
	}

	target := node.AbsPath
	if relPath != "" {
		cleaned := strings.TrimPrefix(path.Clean("/"+relPath), "/")
		if err := s.ValidateFilePath(cleaned); err != nil {
			return nil, nil, err
		}
		if !node.IsFolder {
			return nil, nil, fmt.Errorf("path given for a file share")
		}
		target = filepath.Join(node.AbsPath, filepath.FromSlash(cleaned))

		// Ensure the resolved path stays inside the shared folder
		absTarget, err := filepath.Abs(target)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid file path")
		}
		absNode, err := filepath.Abs(node.AbsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid share path")
		}
		if !strings.HasPrefix(absTarget, absNode+string(os.PathSeparator)) {
			return nil, nil, fmt.Errorf("path traversal not allowed")
		}
		target = absTarget
	} else if node.IsFolder {
		return nil, nil, ErrNotAFolder
	}

	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrShareNotFound
		}
		return nil, nil, fmt.Errorf("file access error: %w", err)
	}
	if info.IsDir() {
		return nil, nil, fmt.Errorf("path is a directory, not a file")
	}

	file, err := os.Open(target)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, info, nil
}

// OpenStream adapts OpenFile for the player's byte-source contract
func (s *shareService) OpenStream(token, relPath string) (io.ReadCloser, int64, error) {
	file, info, err := s.OpenFile(token, relPath)
	if err != nil {
		return nil, 0, err
	}
	return file, info.Size(), nil
}

// ContentType returns the appropriate MIME type for an audio file
func (s *shareService) ContentType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".flac":
		return "audio/flac"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "application/ogg"
	case ".m4a":
		return "audio/mp4"
	case ".aac":
		return "audio/aac"
	default:
		return "application/octet-stream"
	}
}

// ValidateFilePath checks for path traversal attempts and other security issues
func (s *shareService) ValidateFilePath(filePath string) error {
	// Check for path traversal attempts
	if strings.Contains(filePath, "..") {
		return fmt.Errorf("path traversal not allowed")
	}

	// Check for absolute paths
	if strings.HasPrefix(filePath, "/") {
		return fmt.Errorf("absolute paths not allowed")
	}

	// Check for empty path
	if strings.TrimSpace(filePath) == "" {
		return fmt.Errorf("empty path not allowed")
	}

	return nil
}

func (s *shareService) resolveWithinRoot(relPath string) (string, error) {
	absRoot, err := filepath.Abs(s.root)
	if err != nil {
		return "", fmt.Errorf("invalid share root: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(absRoot, filepath.FromSlash(relPath)))
	if err != nil {
		return "", fmt.Errorf("invalid share target")
	}
	if absPath != absRoot && !strings.HasPrefix(absPath, absRoot+string(os.PathSeparator)) {
		return "", fmt.Errorf("share target escapes the shares root")
	}
	return absPath, nil
}
