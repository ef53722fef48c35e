package domain

import "strings"

// FileRefPrefix marks a support message body that carries an attachment
// reference instead of free text: "📎ARQUIVO:<url>|<filename>".
const FileRefPrefix = "📎ARQUIVO:"

// ImageCaption is the body stored alongside image messages.
const ImageCaption = "📷 Imagem"

// PayloadKind names the primary payload of a support message.
type PayloadKind string

const (
	PayloadText  PayloadKind = "text"
	PayloadImage PayloadKind = "image"
	PayloadFile  PayloadKind = "file"
)

// FileRef is an attachment reference decoded from a message body.
type FileRef struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// EncodeFileRef renders url and filename as an in-band message body.
func EncodeFileRef(url, filename string) string {
	return FileRefPrefix + url + "|" + filename
}

// ParseFileRef decodes a body produced by EncodeFileRef. The split happens on
// the first '|' after the prefix, so filenames may contain '|'. It reports
// false when the body is not a file reference or either part is empty.
func ParseFileRef(body string) (FileRef, bool) {
	rest, ok := strings.CutPrefix(body, FileRefPrefix)
	if !ok {
		return FileRef{}, false
	}
	url, name, ok := strings.Cut(rest, "|")
	if !ok || url == "" || name == "" {
		return FileRef{}, false
	}
	return FileRef{URL: url, Filename: name}, true
}

// PrimaryPayload classifies a message: an image reference wins, then an
// encoded file reference, then plain text.
func PrimaryPayload(m SupportMessage) PayloadKind {
	if m.ImageURL != nil && *m.ImageURL != "" {
		return PayloadImage
	}
	if _, ok := ParseFileRef(m.Message); ok {
		return PayloadFile
	}
	return PayloadText
}
