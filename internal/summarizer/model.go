package summarizer

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

//go:embed stopwords_en.txt
var defaultStopwords []byte

// Model holds the language resources shared by every Summarize call.
// It is immutable after LoadModel returns.
type Model struct {
	stopwords map[string]struct{}
	splitter  *sentences.DefaultSentenceTokenizer
}

// LoadModel reads a newline separated stopword list from path, or the
// embedded English list when path is empty. Lines starting with # are ignored.
// Sentence boundaries come from the bundled English Punkt training data.
func LoadModel(path string) (*Model, error) {
	raw := defaultStopwords
	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read stopwords %s: %w", path, err)
		}
		raw = data
	}

	words := map[string]struct{}{}
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		line := strings.ToLower(strings.TrimSpace(sc.Text()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words[line] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan stopwords: %w", err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("stopword list is empty")
	}

	splitter, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("load sentence tokenizer: %w", err)
	}

	return &Model{stopwords: words, splitter: splitter}, nil
}

// IsStopword reports whether the lower-cased token carries no topical weight.
func (m *Model) IsStopword(token string) bool {
	_, ok := m.stopwords[token]
	return ok
}

// Size returns the number of stopwords loaded.
func (m *Model) Size() int {
	return len(m.stopwords)
}

type sentence struct {
	text   string
	tokens []string
}

// split segments text into sentences, keeping abbreviations such as "Mr."
// and decimals inside the sentence they belong to.
func (m *Model) split(text string) []sentence {
	var out []sentence
	for _, sent := range m.splitter.Tokenize(text) {
		t := strings.TrimSpace(sent.Text)
		if t == "" {
			continue
		}
		out = append(out, sentence{text: t, tokens: tokenize(t)})
	}
	return out
}
