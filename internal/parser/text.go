package parser

import (
	"bufio"
	"io"
	"strings"
)

// TextParser handles plain text files.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var sb strings.Builder
	pendingBreak := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			// Collapse runs of blank lines into one paragraph break.
			pendingBreak = sb.Len() > 0
			continue
		}
		if pendingBreak {
			sb.WriteString("\n\n")
			pendingBreak = false
		} else if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	return sb.String(), nil
}
