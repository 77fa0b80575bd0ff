package dispatch

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/fardannozami/wa-session-gateway/internal/domain/phone"
	"github.com/fardannozami/wa-session-gateway/internal/session"
)

// Media describes one attachment. Exactly one of URL, Base64 or Data is used, in
// that order.
type Media struct {
	URL      string `json:"url,omitempty"`
	Base64   string `json:"base64,omitempty"`
	Data     []byte `json:"-"`
	Mimetype string `json:"mimetype,omitempty"`
	FileName string `json:"fileName,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

func (m *Media) hasSource() bool {
	return m.URL != "" || m.Base64 != "" || len(m.Data) > 0
}

// Content is the body of one outbound message.
type Content struct {
	Text     string `json:"text,omitempty"`
	Image    *Media `json:"image,omitempty"`
	Video    *Media `json:"video,omitempty"`
	Document *Media `json:"document,omitempty"`
}

func (c Content) empty() bool {
	return strings.TrimSpace(c.Text) == "" && c.Image == nil && c.Video == nil && c.Document == nil
}

// Request is a single message addressed to Target.
type Request struct {
	Target string `json:"target"`
	Content
}

var dataURLPrefix = regexp.MustCompile(`^data:[\w.+-]+/[\w.+-]+;base64,`)

var defaults = map[session.MediaKind]struct{ mimetype, fileName string }{
	session.MediaImage:    {"image/jpeg", "image.jpg"},
	session.MediaVideo:    {"video/mp4", "video.mp4"},
	session.MediaDocument: {"application/octet-stream", ""},
}

// NormalizeTarget turns a phone number or a full address into a transport address.
func NormalizeTarget(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("target is required")
	}
	if strings.Contains(raw, "@") {
		return raw, nil
	}
	return phone.UserAddress(raw)
}

// validate checks c without decoding any media.
func validate(c Content) error {
	if c.empty() {
		return fmt.Errorf("text or media is required")
	}
	media := []struct {
		kind session.MediaKind
		m    *Media
	}{
		{session.MediaImage, c.Image},
		{session.MediaVideo, c.Video},
		{session.MediaDocument, c.Document},
	}
	for _, it := range media {
		if it.m != nil && !it.m.hasSource() {
			return fmt.Errorf("%s has no url, base64 or data", it.kind)
		}
	}
	if c.Document != nil && strings.TrimSpace(c.Document.FileName) == "" {
		return fmt.Errorf("document requires a fileName")
	}
	return nil
}

// payloads builds the transport payloads for c in send order. Video wins over
// image; a document is sent after the primary media as its own message. Text
// becomes the caption of the primary media, or a plain message when there is none.
func payloads(c Content) ([]session.Payload, error) {
	var out []session.Payload

	primary, kind := c.Video, session.MediaVideo
	if primary == nil {
		primary, kind = c.Image, session.MediaImage
	}

	if primary != nil {
		p, err := mediaPayload(primary, kind, c.Text)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	} else if strings.TrimSpace(c.Text) != "" && c.Document == nil {
		out = append(out, session.Payload{Text: c.Text})
	}

	if c.Document != nil {
		caption := ""
		if primary == nil {
			caption = c.Text
		}
		p, err := mediaPayload(c.Document, session.MediaDocument, caption)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func mediaPayload(m *Media, kind session.MediaKind, text string) (session.Payload, error) {
	d := defaults[kind]
	p := session.Payload{
		Kind:     kind,
		Caption:  m.Caption,
		Mimetype: m.Mimetype,
		FileName: m.FileName,
	}
	if text != "" {
		p.Caption = text
	}
	if p.Mimetype == "" {
		p.Mimetype = d.mimetype
	}
	if p.FileName == "" {
		p.FileName = d.fileName
	}

	switch {
	case m.URL != "":
		p.MediaURL = m.URL
	case m.Base64 != "":
		raw := dataURLPrefix.ReplaceAllString(strings.TrimSpace(m.Base64), "")
		data, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return session.Payload{}, fmt.Errorf("decode %s base64: %w", kind, err)
		}
		p.Data = data
	default:
		p.Data = m.Data
	}
	return p, nil
}
