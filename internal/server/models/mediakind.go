package models

import "mime"

// MediaKind is a closed classification of file types, replacing string-based
// extension dispatch.
type MediaKind int

const (
	MediaOther MediaKind = iota
	MediaImage
	MediaVideo
	MediaAudio
	MediaDocument
	MediaArchive
)

func (k MediaKind) String() string {
	switch k {
	case MediaImage:
		return "image"
	case MediaVideo:
		return "video"
	case MediaAudio:
		return "audio"
	case MediaDocument:
		return "document"
	case MediaArchive:
		return "archive"
	default:
		return "other"
	}
}

var extensionKinds = map[string]MediaKind{
	"jpg": MediaImage, "jpeg": MediaImage, "png": MediaImage, "gif": MediaImage,
	"bmp": MediaImage, "webp": MediaImage, "svg": MediaImage, "ico": MediaImage,

	"mp4": MediaVideo, "mkv": MediaVideo, "avi": MediaVideo, "mov": MediaVideo,
	"webm": MediaVideo, "wmv": MediaVideo,

	"mp3": MediaAudio, "wav": MediaAudio, "flac": MediaAudio, "ogg": MediaAudio,
	"m4a": MediaAudio, "aac": MediaAudio,

	"pdf": MediaDocument, "doc": MediaDocument, "docx": MediaDocument,
	"xls": MediaDocument, "xlsx": MediaDocument, "ppt": MediaDocument,
	"pptx": MediaDocument, "txt": MediaDocument, "md": MediaDocument,
	"odt": MediaDocument, "csv": MediaDocument,

	"zip": MediaArchive, "tar": MediaArchive, "gz": MediaArchive,
	"rar": MediaArchive, "7z": MediaArchive, "xz": MediaArchive,
}

// ClassifyExtension maps a lowercase extension (without dot) to its kind.
// Unknown extensions classify as MediaOther.
func ClassifyExtension(ext string) MediaKind {
	if k, ok := extensionKinds[ext]; ok {
		return k
	}
	return MediaOther
}

// DetectMIME resolves a content type for the given file name, falling back to
// application/octet-stream when the platform MIME table has no entry.
func DetectMIME(name string) string {
	ext := ExtensionOf(name)
	if ext == "" {
		return "application/octet-stream"
	}
	if t := mime.TypeByExtension("." + ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
