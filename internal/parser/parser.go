// Package parser extracts cards from markdown notes. A card starts at a
// level-two heading, whose text is the card title; everything up to the next
// such heading or a "---" line is the card content. Headings and separators
// inside fenced code blocks are content.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/knoldeck/internal/domain"
)

const (
	titlePrefix = "## "
	separator   = "---"
	maxLine     = 1 << 20
)

type state int

const (
	seeking state = iota
	readingContent
)

// ParseFile reads a file from the given path and extracts all cards.
func ParseFile(path string) ([]domain.Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all cards. Only Title and
// Content are set on the returned cards.
func Parse(r io.Reader) ([]domain.Card, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	var cards []domain.Card
	var currentCard domain.Card
	var currentBlock []string
	currentState := seeking
	fence := ""

	finishCard := func() {
		if currentState == readingContent {
			currentCard.Content = trimBlankLines(currentBlock)
			cards = append(cards, currentCard)
		}
		currentCard = domain.Card{}
		currentBlock = nil
		currentState = seeking
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)

		if fence != "" {
			if strings.HasPrefix(trimmed, fence) {
				fence = ""
			}
			if currentState == readingContent {
				currentBlock = append(currentBlock, line)
			}
			continue
		}

		if marker := fenceMarker(trimmed); marker != "" {
			fence = marker
			if currentState == readingContent {
				currentBlock = append(currentBlock, line)
			}
			continue
		}

		if trimmed == separator {
			finishCard()
			continue
		}

		if title, ok := heading(line); ok {
			finishCard()
			currentCard.Title = title
			currentState = readingContent
			continue
		}

		if currentState == readingContent {
			currentBlock = append(currentBlock, line)
		}
	}

	finishCard() // Finish the very last card in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}

// heading returns the title of a level-two heading line.
func heading(line string) (string, bool) {
	if !strings.HasPrefix(line, titlePrefix) {
		return "", false
	}
	title := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(line[len(titlePrefix):]), "#"))
	return title, title != ""
}

func fenceMarker(trimmed string) string {
	for _, m := range []string{"```", "~~~"} {
		if strings.HasPrefix(trimmed, m) {
			return m
		}
	}
	return ""
}

func trimBlankLines(lines []string) string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}
