package wa

import (
	"fmt"

	"github.com/fardannozami/wa-session-gateway/internal/session"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"google.golang.org/protobuf/proto"
)

func mediaType(kind session.MediaKind) (whatsmeow.MediaType, error) {
	switch kind {
	case session.MediaImage:
		return whatsmeow.MediaImage, nil
	case session.MediaVideo:
		return whatsmeow.MediaVideo, nil
	case session.MediaDocument:
		return whatsmeow.MediaDocument, nil
	}
	return "", fmt.Errorf("unsupported media kind %q", kind)
}

// buildMessage assembles the protobuf message for p. up is nil for text payloads.
func buildMessage(p session.Payload, up *whatsmeow.UploadResponse) (*waE2E.Message, error) {
	if p.Kind == session.MediaNone {
		return &waE2E.Message{Conversation: proto.String(p.Text)}, nil
	}
	if up == nil {
		return nil, fmt.Errorf("%s payload was not uploaded", p.Kind)
	}

	switch p.Kind {
	case session.MediaImage:
		return &waE2E.Message{ImageMessage: &waE2E.ImageMessage{
			Caption:       optional(p.Caption),
			Mimetype:      proto.String(p.Mimetype),
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
		}}, nil
	case session.MediaVideo:
		return &waE2E.Message{VideoMessage: &waE2E.VideoMessage{
			Caption:       optional(p.Caption),
			Mimetype:      proto.String(p.Mimetype),
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
		}}, nil
	case session.MediaDocument:
		return &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{
			Caption:       optional(p.Caption),
			Title:         proto.String(p.FileName),
			FileName:      proto.String(p.FileName),
			Mimetype:      proto.String(p.Mimetype),
			URL:           proto.String(up.URL),
			DirectPath:    proto.String(up.DirectPath),
			MediaKey:      up.MediaKey,
			FileEncSHA256: up.FileEncSHA256,
			FileSHA256:    up.FileSHA256,
			FileLength:    proto.Uint64(up.FileLength),
		}}, nil
	}
	return nil, fmt.Errorf("unsupported media kind %q", p.Kind)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return proto.String(s)
}
