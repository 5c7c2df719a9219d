package bot

import (
	"fmt"
	"html"
	"strings"

	"newsrelay/internal/model"
)

const (
	maxTitleLen        = 512
	motionPlaceholder  = "🎥 Video/GIF (see tweet)"
	untitledEntryTitle = "Untitled"
)

// PostURL returns the public permalink of a post.
func PostURL(handle, id string) string {
	return fmt.Sprintf("https://x.com/%s/status/%s", handle, id)
}

// ComposeTweet formats a timeline post as a plain-text chat message with
// at most one attachment.
func ComposeTweet(handle string, item model.TimelineItem) model.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "🔊 New tweet from @%s:\n\n", handle)
	b.WriteString(item.Text)
	b.WriteString("\n\n🔗 ")
	b.WriteString(PostURL(handle, item.ID))

	msg := model.Message{}
	switch a := SelectMedia(item.Media); a.Kind {
	case AttachImage:
		msg.ImageURL = a.URL
	case AttachPlaceholder:
		b.WriteString("\n")
		b.WriteString(motionPlaceholder)
	}
	msg.Text = b.String()
	return msg
}

// ComposeEntry formats a feed entry as an HTML chat message: bold title,
// publication date, cleaned summary, then the link.
func ComposeEntry(entry model.FeedEntry) model.Message {
	title := strings.TrimSpace(entry.Title)
	if title == "" {
		title = untitledEntryTitle
	}

	var b strings.Builder
	b.WriteString("📰 <b>")
	b.WriteString(html.EscapeString(truncate(title, maxTitleLen)))
	b.WriteString("</b>")
	if entry.Published != "" {
		b.WriteString("\n")
		b.WriteString(html.EscapeString(entry.Published))
	}

	summary, imageURL := CleanSummary(entry.SummaryHTML)
	if summary != "" {
		b.WriteString("\n\n")
		b.WriteString(html.EscapeString(summary))
	}
	if entry.Link != "" {
		b.WriteString("\n\n🔗 ")
		b.WriteString(html.EscapeString(entry.Link))
	}

	if imageURL == "" {
		imageURL = entry.ImageURL
	}
	return model.Message{
		Text:     b.String(),
		ImageURL: imageURL,
		Markup:   true,
	}
}
