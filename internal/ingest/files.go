package ingest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// maxResumeSize caps resume uploads at 10MB.
const maxResumeSize = 10 << 20

// ExtractedResume is the result of pulling text out of a resume file.
type ExtractedResume struct {
	Text        string
	FileType    string
	FileSize    int64
	DefaultName string
}

// ExtractResume reads a resume file and extracts its plain text. Supported
// formats are .txt, .md and .pdf. PDFs with no extractable text layer, like
// scans, yield an empty Text without error.
func ExtractResume(path string) (*ExtractedResume, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.Size() > maxResumeSize {
		return nil, fmt.Errorf("%s is %d bytes, max resume size is %d", path, info.Size(), maxResumeSize)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var text string
	switch ext {
	case ".txt", ".md":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		text = string(data)
	case ".pdf":
		text, err = extractPDFText(path)
		if err != nil {
			return nil, fmt.Errorf("extracting %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported resume format %q (supported: .txt, .md, .pdf)", ext)
	}

	base := filepath.Base(path)
	return &ExtractedResume{
		Text:        strings.TrimSpace(text),
		FileType:    strings.TrimPrefix(ext, "."),
		FileSize:    info.Size(),
		DefaultName: strings.TrimSuffix(base, filepath.Ext(base)),
	}, nil
}

func extractPDFText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	if _, err := buf.ReadFrom(content); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return buf.String(), nil
}
