package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"studybot/core/metrics"
	studyconfig "studybot/study/config"
)

const (
	ocrEmptyReply      = "Не удалось распознать текст на фото"
	ocrFailReply       = "Ошибка обработки изображения."
	ocrEngineHintReply = "Ошибка обработки изображения. Убедитесь, что Tesseract установлен и путь указан в TESSERACT_CMD"
)

// Tesseract extracts text from images with the tesseract command line tool.
type Tesseract struct {
	command   string
	languages string
	guard     *guard
}

// NewTesseract returns an OCR provider for cfg.
func NewTesseract(cfg studyconfig.OCRConfig, bc studyconfig.BreakerConfig, collector *metrics.Collector) *Tesseract {
	return &Tesseract{
		command:   cfg.Command,
		languages: cfg.Languages,
		guard:     newGuard("ocr", ocrFailReply, cfg.Timeout, bc, collector),
	}
}

// Recognize returns the trimmed text found in the image at path.
func (t *Tesseract) Recognize(ctx context.Context, path string) (string, error) {
	return t.guard.run(ctx, "recognize", func(ctx context.Context) (string, error) {
		if err := checkImage(path); err != nil {
			return "", &Error{Provider: "ocr", Kind: KindBadInput, Reply: ocrFailReply, Err: err}
		}

		var stdout, stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, t.command, path, "stdout", "-l", t.languages)
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
				return "", &Error{Provider: "ocr", Kind: KindEngineMissing, Reply: ocrEngineHintReply, Err: err}
			}
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return "", fmt.Errorf("tesseract: %w: %s", err, msg)
			}
			return "", fmt.Errorf("tesseract: %w", err)
		}

		text := strings.TrimSpace(stdout.String())
		if text == "" {
			return "", &Error{Provider: "ocr", Kind: KindEmpty, Reply: ocrEmptyReply}
		}
		return text, nil
	})
}

func checkImage(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, _, err := image.DecodeConfig(f); err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	return nil
}
