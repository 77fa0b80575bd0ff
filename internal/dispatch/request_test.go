package dispatch

import (
	"encoding/base64"
	"testing"

	"github.com/fardannozami/wa-session-gateway/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTarget(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "+62 812-3456-7890", want: "6281234567890@s.whatsapp.net"},
		{in: "6281234567890@s.whatsapp.net", want: "6281234567890@s.whatsapp.net"},
		{in: "120363000000000000@g.us", want: "120363000000000000@g.us"},
		{in: "", wantErr: true},
		{in: "12ab", wantErr: true},
		{in: "1234", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeTarget(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	assert.Error(t, validate(Content{}))
	assert.Error(t, validate(Content{Text: "   "}))
	assert.NoError(t, validate(Content{Text: "hi"}))
	assert.Error(t, validate(Content{Image: &Media{}}))
	assert.NoError(t, validate(Content{Image: &Media{URL: "https://x/y.jpg"}}))
	assert.ErrorContains(t, validate(Content{Document: &Media{URL: "https://x/a.pdf"}}), "fileName")
	assert.NoError(t, validate(Content{Document: &Media{URL: "https://x/a.pdf", FileName: "a.pdf"}}))
}

func TestPayloadsTextOnly(t *testing.T) {
	ps, err := payloads(Content{Text: "hello"})
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, session.MediaNone, ps[0].Kind)
	assert.Equal(t, "hello", ps[0].Text)
}

func TestPayloadsVideoWinsOverImage(t *testing.T) {
	ps, err := payloads(Content{
		Text:  "look",
		Image: &Media{URL: "https://x/i.jpg"},
		Video: &Media{URL: "https://x/v.mp4", Caption: "ignored"},
	})
	require.NoError(t, err)
	require.Len(t, ps, 1)
	p := ps[0]
	assert.Equal(t, session.MediaVideo, p.Kind)
	assert.Equal(t, "https://x/v.mp4", p.MediaURL)
	assert.Equal(t, "look", p.Caption)
	assert.Equal(t, "video/mp4", p.Mimetype)
	assert.Equal(t, "video.mp4", p.FileName)
}

func TestPayloadsImageDefaults(t *testing.T) {
	ps, err := payloads(Content{Image: &Media{URL: "https://x/i", Caption: "cap"}})
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "image/jpeg", ps[0].Mimetype)
	assert.Equal(t, "image.jpg", ps[0].FileName)
	assert.Equal(t, "cap", ps[0].Caption)
}

func TestPayloadsDocumentAccompaniesMedia(t *testing.T) {
	ps, err := payloads(Content{
		Text:     "see attached",
		Image:    &Media{URL: "https://x/i.jpg"},
		Document: &Media{URL: "https://x/a.pdf", FileName: "a.pdf", Mimetype: "application/pdf"},
	})
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, session.MediaImage, ps[0].Kind)
	assert.Equal(t, "see attached", ps[0].Caption)
	assert.Equal(t, session.MediaDocument, ps[1].Kind)
	assert.Equal(t, "a.pdf", ps[1].FileName)
	assert.Equal(t, "application/pdf", ps[1].Mimetype)
	assert.Empty(t, ps[1].Caption)
}

func TestPayloadsDocumentOnlyCarriesText(t *testing.T) {
	ps, err := payloads(Content{
		Text:     "invoice",
		Document: &Media{Data: []byte("%PDF"), FileName: "inv.pdf"},
	})
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "invoice", ps[0].Caption)
	assert.Equal(t, "application/octet-stream", ps[0].Mimetype)
	assert.Equal(t, []byte("%PDF"), ps[0].Data)
}

func TestPayloadsDecodesBase64DataURL(t *testing.T) {
	enc := base64.StdEncoding.EncodeToString([]byte("png-bytes"))

	ps, err := payloads(Content{Image: &Media{Base64: "data:image/png;base64," + enc, Mimetype: "image/png"}})
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), ps[0].Data)
	assert.Empty(t, ps[0].MediaURL)

	ps, err = payloads(Content{Image: &Media{Base64: enc}})
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), ps[0].Data)

	_, err = payloads(Content{Image: &Media{Base64: "!!not base64!!"}})
	assert.Error(t, err)
}
