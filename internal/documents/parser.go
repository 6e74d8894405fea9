package documents

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// Chunk is one embeddable block of document text. For PDFs a chunk is a
// page; plaintext is split into size-bounded blocks.
type Chunk struct {
	Text    string
	Ordinal int
	Error   error
}

type Parser interface {
	Parse(name string, data io.Reader) chan Chunk
}

type DefaultParser struct {
	maxChunkSize int
}

const (
	defaultMaxChunkSize = 8 * 1024
	maxDocumentSize     = 32 * 1024 * 1024 // 32 MB
	queueBufferSize     = 4
)

func NewDefaultParser() *DefaultParser {
	return &DefaultParser{maxChunkSize: defaultMaxChunkSize}
}

func (parser *DefaultParser) Parse(name string, data io.Reader) chan Chunk {
	output := make(chan Chunk, queueBufferSize)

	ext := strings.ToLower(filepath.Ext(name))

	go func() {
		defer close(output)

		switch ext {
		case ".pdf":
			parser.parsePdf(data, output)
		case ".txt", ".md":
			parser.parsePlaintext(data, output)
		default:
			output <- Chunk{Error: fmt.Errorf("unsupported document type %q", ext)}
		}
	}()

	return output
}

func (parser *DefaultParser) parsePdf(data io.Reader, output chan Chunk) {
	document := make([]byte, maxDocumentSize)

	n, err := io.ReadFull(data, document)
	if err == nil {
		// if the error is nil then the end of the stream was not reached, thus we cannot parse the pdf.
		output <- Chunk{Error: fmt.Errorf("pdf is too large for parsing")}
		return
	} else if err != io.EOF && err != io.ErrUnexpectedEOF {
		output <- Chunk{Error: err}
		return
	}

	document = document[:n]

	pdf, err := fitz.NewFromMemory(document)
	if err != nil {
		output <- Chunk{Error: err}
		return
	}
	defer pdf.Close()

	ordinal := 0
	for i := 0; i < pdf.NumPage(); i++ {
		pageText, err := pdf.Text(i)
		if err != nil {
			output <- Chunk{Error: err}
			return
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		output <- Chunk{Text: pageText, Ordinal: ordinal}
		ordinal++
	}
}

func (parser *DefaultParser) parsePlaintext(data io.Reader, output chan Chunk) {
	ordinal := 0
	buf := make([]byte, parser.maxChunkSize)

	for {
		n, err := io.ReadFull(data, buf)
		if n > 0 {
			output <- Chunk{Text: string(buf[:n]), Ordinal: ordinal}
			ordinal++
		}

		if err != nil {
			if err != io.EOF && err != io.ErrUnexpectedEOF {
				output <- Chunk{Error: err}
			}
			return
		}
	}
}
