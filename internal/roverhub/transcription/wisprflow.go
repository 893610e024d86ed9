package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/autopeer-io/roverhub/internal/roverhub/core"
	"github.com/autopeer-io/roverhub/pkg/options"
)

const maxErrorBody = 512

var _ Transcriber = (*WisprFlow)(nil)

// WisprFlow calls a Whisper compatible transcription endpoint.
type WisprFlow struct {
	endpoint string
	apiKey   string
	model    string
	language string
	client   *http.Client
}

// NewWisprFlow returns nil when opts carries no API key.
func NewWisprFlow(opts *options.TranscriptionOptions, client *http.Client) *WisprFlow {
	if !opts.Enabled() {
		return nil
	}
	if client == nil {
		client = &http.Client{}
	}
	return &WisprFlow{
		endpoint: opts.Endpoint,
		apiKey:   opts.APIKey,
		model:    opts.Model,
		language: opts.Language,
		client:   client,
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

func (w *WisprFlow) Transcribe(ctx context.Context, audio []byte) (string, error) {
	body, contentType, err := w.form(audio)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("%w: transcription returned %d: %s", core.ErrExternalService, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode transcription: %w", core.ErrExternalService, err)
	}
	return strings.TrimSpace(out.Text), nil
}

func (w *WisprFlow) form(audio []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="audio.webm"`)
	header.Set("Content-Type", "audio/webm")
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}

	for _, field := range [][2]string{
		{"model", w.model},
		{"language", w.language},
		{"response_format", "json"},
	} {
		if err := mw.WriteField(field[0], field[1]); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
