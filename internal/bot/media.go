package bot

import "newsrelay/internal/model"

// AttachmentKind tells how a post's media shows up in the chat message.
type AttachmentKind int

// Attachment kinds.
const (
	AttachNone AttachmentKind = iota
	AttachImage
	AttachPlaceholder
)

// Attachment is the one media item chosen for a message.
type Attachment struct {
	Kind AttachmentKind
	URL  string
}

type mediaPick func(model.MediaRef) (Attachment, bool)

// mediaPicks run in priority order; the first that matches any ref wins.
var mediaPicks = []mediaPick{pickPhoto, pickMotion}

// SelectMedia picks at most one attachment for a post: the first photo
// with a usable URL, else a placeholder for the first video or GIF.
func SelectMedia(refs []model.MediaRef) Attachment {
	for _, pick := range mediaPicks {
		if a, ok := firstMatch(refs, pick); ok {
			return a
		}
	}
	return Attachment{Kind: AttachNone}
}

func firstMatch(refs []model.MediaRef, pick mediaPick) (Attachment, bool) {
	for _, ref := range refs {
		if a, ok := pick(ref); ok {
			return a, true
		}
	}
	return Attachment{}, false
}

func pickPhoto(ref model.MediaRef) (Attachment, bool) {
	if ref.Kind != model.MediaPhoto {
		return Attachment{}, false
	}
	url := ref.URL
	if url == "" {
		url = ref.PreviewURL
	}
	if url == "" {
		return Attachment{}, false
	}
	return Attachment{Kind: AttachImage, URL: url}, true
}

func pickMotion(ref model.MediaRef) (Attachment, bool) {
	switch ref.Kind {
	case model.MediaVideo, model.MediaAnimatedGIF:
		return Attachment{Kind: AttachPlaceholder}, true
	}
	return Attachment{}, false
}
