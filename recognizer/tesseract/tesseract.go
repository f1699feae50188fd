// Package tesseract reads plate text with the Tesseract OCR engine.
package tesseract

import (
	"context"
	"log/slog"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/alpr-go/model"
	"github.com/khaledhikmat/alpr-go/recognizer"
	"github.com/khaledhikmat/alpr-go/service/config"
	"github.com/khaledhikmat/alpr-go/service/lgr"
)

type Recognizer struct {
	mu     sync.Mutex // The tesseract client is not safe for concurrent use
	client *gosseract.Client
}

func New(params config.RecognizerParameters) (*Recognizer, error) {
	client := gosseract.NewClient()

	lang := params.Language
	if lang == "" {
		lang = "kor"
	}
	if err := client.SetLanguage(lang); err != nil {
		client.Close()
		return nil, xerrors.Errorf("tesseract: language %s: %w", lang, err)
	}

	// A plate crop is a single line of text
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		client.Close()
		return nil, xerrors.Errorf("tesseract: page segmentation mode: %w", err)
	}

	if params.Whitelist != "" {
		if err := client.SetWhitelist(params.Whitelist); err != nil {
			client.Close()
			return nil, xerrors.Errorf("tesseract: whitelist: %w", err)
		}
	}

	lgr.Logger.Info("tesseract recognizer ready",
		slog.String("language", lang),
		slog.String("version", client.Version()),
	)

	return &Recognizer{
		client: client,
	}, nil
}

// Recognize returns the raw text Tesseract reads from the enhanced crop.
func (r *Recognizer) Recognize(ctx context.Context, crop model.Frame) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := recognizer.EncodePNG(crop)
	if err != nil {
		return "", xerrors.Errorf("tesseract: encoding crop: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.client.SetImageFromBytes(data); err != nil {
		return "", xerrors.Errorf("tesseract: setting image: %w", err)
	}

	text, err := r.client.Text()
	if err != nil {
		return "", xerrors.Errorf("tesseract: reading text: %w", err)
	}
	return text, nil
}

func (r *Recognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.client.Close()
}
