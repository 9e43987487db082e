package analysis

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/callscopehq/callscope/internal/domain/entities"
)

// DocumentStore is the extractor's view of the object store holding FILE
// artifacts.
type DocumentStore interface {
	FetchObject(ctx context.Context, objectName string) ([]byte, error)
	FetchToTempFile(ctx context.Context, objectName string) (string, error)
}

// Extractor turns an artifact's content reference into plain text. It never
// retries; retries exist only around the persistence step of the pipeline.
type Extractor struct {
	store        DocumentStore
	chunkSize    int
	chunkOverlap int
	logger       *zap.Logger
}

// NewExtractor creates an extractor. Chunk parameters of zero fall back to
// the pipeline defaults (32000/200).
func NewExtractor(store DocumentStore, chunkSize, chunkOverlap int, logger *zap.Logger) *Extractor {
	if chunkSize <= 0 {
		chunkSize = 32000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 200
	}
	return &Extractor{
		store:        store,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       logger,
	}
}

// Extract produces plain text for an artifact. TEXT content passes through
// unchanged; FILE content is fetched and parsed, with one fallback attempt
// through temporary storage before the error propagates.
func (e *Extractor) Extract(ctx context.Context, artifact *entities.Artifact) (string, error) {
	switch artifact.Kind {
	case entities.ArtifactKindText:
		return artifact.ContentRef, nil

	case entities.ArtifactKindFile:
		text, err := e.extractFromStore(ctx, artifact.ContentRef)
		if err == nil {
			return e.chunkAndJoin(text), nil
		}

		if e.logger != nil {
			e.logger.Warn("primary extraction failed, trying temp-file fallback",
				zap.String("artifact_id", artifact.ID.String()),
				zap.Error(err),
			)
		}

		// One fallback: download to disk, parse from the file. If this
		// also fails, the pipeline fails.
		text, fbErr := e.extractViaTempFile(ctx, artifact.ContentRef)
		if fbErr != nil {
			return "", fmt.Errorf("extraction failed (primary: %v): %w", err, fbErr)
		}
		return e.chunkAndJoin(text), nil

	default:
		return "", fmt.Errorf("unknown artifact kind %q", artifact.Kind)
	}
}

func (e *Extractor) extractFromStore(ctx context.Context, objectName string) (string, error) {
	data, err := e.store.FetchObject(ctx, objectName)
	if err != nil {
		return "", err
	}
	return parseDocument(data)
}

func (e *Extractor) extractViaTempFile(ctx context.Context, objectName string) (string, error) {
	path, err := e.store.FetchToTempFile(ctx, objectName)
	if err != nil {
		return "", err
	}
	defer os.Remove(path)

	if isPDFPath(path) {
		f, reader, err := pdf.Open(path)
		if err != nil {
			return "", fmt.Errorf("failed to open pdf: %w", err)
		}
		defer f.Close()
		return pdfPlainText(reader)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return parseDocument(data)
}

// parseDocument converts raw document bytes to plain text. PDF bytes go
// through the pdf reader; anything else must be valid UTF-8 text.
func parseDocument(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("document is empty")
	}

	if bytes.HasPrefix(data, []byte("%PDF")) {
		reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return "", fmt.Errorf("failed to parse pdf: %w", err)
		}
		return pdfPlainText(reader)
	}

	if !utf8.Valid(data) {
		return "", fmt.Errorf("document is not valid UTF-8 text")
	}
	return string(data), nil
}

func pdfPlainText(reader *pdf.Reader) (string, error) {
	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(content); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return buf.String(), nil
}

func isPDFPath(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	header := make([]byte, 4)
	if _, err := f.Read(header); err != nil {
		return false
	}
	return bytes.Equal(header, []byte("%PDF"))
}

// chunkAndJoin splits oversized text into overlapping chunks and re-joins
// them with newlines, keeping local context at chunk boundaries while
// staying within the classification service's input limits.
func (e *Extractor) chunkAndJoin(text string) string {
	if len(text) <= e.chunkSize {
		return text
	}

	chunks := chunkText(text, e.chunkSize, e.chunkOverlap)
	return strings.Join(chunks, "\n")
}

// chunkText splits text into chunks of at most size bytes, each starting
// overlap bytes before the previous chunk's end.
func chunkText(text string, size, overlap int) []string {
	if size <= 0 || len(text) <= size {
		return []string{text}
	}

	step := size - overlap
	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + size
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		chunks = append(chunks, text[start:end])
	}
	return chunks
}
