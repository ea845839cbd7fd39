package types

// ShareType classifies the node a share token resolves to
type ShareType string

const (
	ShareTypeFolder ShareType = "FOLDER"
	ShareTypeAudio  ShareType = "AUDIO"
	ShareTypeFile   ShareType = "FILE"
)

// ContextMode is the viewing context of the page consuming a share
type ContextMode string

const (
	ContextSingle  ContextMode = "SINGLE"
	ContextFolder  ContextMode = "FOLDER"
	ContextUnknown ContextMode = "UNKNOWN"
)

// ShareContext is the derived, read-only per-page viewing context
type ShareContext struct {
	Mode       ContextMode `json:"mode"`
	ShareToken string      `json:"shareToken"`
}

// FileEntry describes a single file inside a shared folder
type FileEntry struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mime_type"`
	IsAudio   bool   `json:"is_audio"`
	Extension string `json:"extension"`
}

// FolderStructure is a recursively enumerated folder tree
type FolderStructure struct {
	Name    string             `json:"name"`
	Path    string             `json:"path"`
	Folders []*FolderStructure `json:"folders"`
	Files   []FileEntry        `json:"files"`
}

// OrganizedStructure buckets the immediate child folders of a share root
// into the well-known slots the host convention names specially, plus a
// catch-all list. This is display organization, not a storage concept.
type OrganizedStructure struct {
	AudioFolder   *FolderStructure   `json:"audio_folder"`
	FilesFolder   *FolderStructure   `json:"files_folder"`
	MastersFolder *FolderStructure   `json:"masters_folder"`
	StemsFolder   *FolderStructure   `json:"stems_folder"`
	OtherFolders  []*FolderStructure `json:"other_folders"`
	RootFiles     []FileEntry        `json:"root_files"`
}

// ShareNode is a resolved share target on disk
type ShareNode struct {
	Token    string `json:"token"`
	ShareID  string `json:"share_id"`
	Name     string `json:"name"`
	AbsPath  string `json:"-"`
	MimeType string `json:"mime_type,omitempty"`
	IsFolder bool   `json:"-"`
}

// Type classifies the node by folder-ness and MIME prefix
func (n *ShareNode) Type() ShareType {
	if n.IsFolder {
		return ShareTypeFolder
	}
	if IsAudioMime(n.MimeType) {
		return ShareTypeAudio
	}
	return ShareTypeFile
}
