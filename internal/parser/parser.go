// Package parser reads flashcards from markdown files.
//
// A card starts with a "Q:" line; "A:" starts the answer and "C:" adds
// context, which is appended to the answer. Lines that follow belong to the
// current block. "---" on its own line ends a card.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/conorfennell/fiszki/internal/domain"
)

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
	contextPrefix  = "C:"
	separator      = "---"
)

type state int

const (
	seeking state = iota
	readingQuestion
	readingAnswer
	readingContext
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

type cardBuilder struct {
	question, answer, context string
	state                     state
	block                     []string
}

// flushBlock stores the lines collected so far into the field being read.
func (b *cardBuilder) flushBlock() {
	if len(b.block) == 0 {
		return
	}
	content := strings.Join(b.block, "\n")
	switch b.state {
	case readingQuestion:
		b.question = content
	case readingAnswer:
		b.answer = content
	case readingContext:
		b.context = content
	}
	b.block = nil
}

// card returns the finished card, or false when no question was read.
func (b *cardBuilder) card() (domain.Card, bool) {
	b.flushBlock()
	question := strings.TrimSpace(b.question)
	answer := strings.TrimSpace(b.answer)
	if ctx := strings.TrimSpace(b.context); ctx != "" {
		answer = strings.TrimSpace(answer + "\n\n" + ctx)
	}
	*b = cardBuilder{}
	if question == "" {
		return domain.Card{}, false
	}
	return domain.Card{Question: question, Answer: answer}, true
}

// start begins a new block with the text after prefix.
func (b *cardBuilder) start(st state, line, prefix string) {
	b.flushBlock()
	b.state = st
	b.block = append(b.block, strings.TrimPrefix(line[len(prefix):], " "))
}

// Parse reads from an io.Reader and extracts all cards.
// Cards without an answer are returned too; callers decide whether to keep them.
func Parse(r io.Reader) ([]domain.Card, error) {
	scanner := bufio.NewScanner(r)
	var cards []domain.Card
	var b cardBuilder

	finish := func() {
		if c, ok := b.card(); ok {
			cards = append(cards, c)
		}
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		switch {
		case line == separator:
			finish()
		case strings.HasPrefix(line, questionPrefix):
			if b.state != seeking { // A new question always starts a new card
				finish()
			}
			b.start(readingQuestion, line, questionPrefix)
		case strings.HasPrefix(line, answerPrefix):
			b.start(readingAnswer, line, answerPrefix)
		case strings.HasPrefix(line, contextPrefix):
			b.start(readingContext, line, contextPrefix)
		case b.state != seeking:
			b.block = append(b.block, line)
		}
	}

	finish() // Finish the very last card in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}
