// Package summarizer builds short extractive summaries of article bodies.
//
// Ranking follows TextRank: words are ranked on a co-occurrence graph, runs of
// non-stopwords form candidate keyphrases, and sentences are linked by the
// weight of the top keyphrase words they share. The most central sentences are
// emitted in their original order.
package summarizer

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"NewsHarvester/internal/ports"
)

const (
	DefaultSentences = 5
	DefaultPhrases   = 10
	DefaultMinTokens = 10
	DefaultMaxChars  = 1000

	damping       = 0.85
	maxIterations = 60
	tolerance     = 1e-6
	coWindow      = 3
)

var errNothingToRank = errors.New("no rankable sentences")

// Options tunes the summary size. Zero values take the defaults.
type Options struct {
	Sentences int
	Phrases   int
	MinTokens int
	MaxChars  int
}

func (o Options) withDefaults() Options {
	if o.Sentences <= 0 {
		o.Sentences = DefaultSentences
	}
	if o.Phrases <= 0 {
		o.Phrases = DefaultPhrases
	}
	if o.MinTokens <= 0 {
		o.MinTokens = DefaultMinTokens
	}
	if o.MaxChars <= 0 {
		o.MaxChars = DefaultMaxChars
	}
	return o
}

// TextRank is a ports.Summarizer backed by a shared Model.
type TextRank struct {
	model  *Model
	opts   Options
	logger *slog.Logger
}

var _ ports.Summarizer = (*TextRank)(nil)

// New binds a loaded model to summary options.
func New(model *Model, opts Options, logger *slog.Logger) (*TextRank, error) {
	if model == nil {
		return nil, fmt.Errorf("summarizer model is nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TextRank{model: model, opts: opts.withDefaults(), logger: logger}, nil
}

// Summarize never fails: short input is returned as is, and any ranking
// failure degrades to the leading MaxChars characters. The result ends with
// '.', '!' or '?' and is never longer than the input or MaxChars.
func (s *TextRank) Summarize(text string) (summary string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	limit := min(s.opts.MaxChars, utf8.RuneCountInString(text))

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("summarization panicked", "panic", r)
			summary = finish(text, limit)
		}
	}()

	sentences := s.model.split(text)
	tokens := 0
	for _, sent := range sentences {
		tokens += len(sent.tokens)
	}
	if tokens < s.opts.MinTokens {
		return finish(text, limit)
	}

	out, err := s.rank(text, sentences)
	if err != nil {
		s.logger.Warn("summarization fell back to truncation", "error", err)
		return finish(text, limit)
	}
	return finish(out, limit)
}

func (s *TextRank) candidate(token string) bool {
	if utf8.RuneCountInString(token) < 2 || s.model.IsStopword(token) {
		return false
	}
	for _, r := range token {
		if !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func (s *TextRank) rank(text string, sentences []sentence) (string, error) {
	if len(sentences) == 0 {
		return "", errNothingToRank
	}
	if len(sentences) <= s.opts.Sentences {
		return text, nil
	}

	vocab := map[string]int{}
	var words []string
	wg := newGraph(0)
	runs := make([][][]int, len(sentences))

	for si, sent := range sentences {
		var run, filtered []int
		flush := func() {
			if len(run) > 0 {
				runs[si] = append(runs[si], run)
				run = nil
			}
		}
		for _, tok := range sent.tokens {
			if !s.candidate(tok) {
				flush()
				continue
			}
			id, ok := vocab[tok]
			if !ok {
				id = len(words)
				vocab[tok] = id
				words = append(words, tok)
				wg.grow()
			}
			run = append(run, id)
			filtered = append(filtered, id)
		}
		flush()

		for i := range filtered {
			for j := i + 1; j < len(filtered) && j < i+coWindow; j++ {
				if filtered[i] != filtered[j] {
					wg.link(filtered[i], filtered[j], 1)
				}
			}
		}
	}
	if len(words) == 0 {
		return "", errNothingToRank
	}

	wordRank := wg.pageRank()
	keyWeight := topKeywords(words, runs, wordRank, s.opts.Phrases)
	if len(keyWeight) == 0 {
		return "", errNothingToRank
	}

	vecs := make([][]int, len(sentences))
	for si, rs := range runs {
		seen := map[int]struct{}{}
		for _, run := range rs {
			for _, id := range run {
				if _, ok := keyWeight[id]; !ok {
					continue
				}
				if _, dup := seen[id]; !dup {
					seen[id] = struct{}{}
					vecs[si] = append(vecs[si], id)
				}
			}
		}
		sort.Ints(vecs[si])
	}

	sg := newGraph(len(sentences))
	for i := range sentences {
		for j := i + 1; j < len(sentences); j++ {
			shared := sharedWeight(vecs[i], vecs[j], keyWeight)
			if shared == 0 {
				continue
			}
			norm := math.Log(float64(len(sentences[i].tokens))+1) + math.Log(float64(len(sentences[j].tokens))+1)
			sg.link(i, j, shared/norm)
		}
	}

	var scores []float64
	if sg.edges > 0 {
		scores = sg.pageRank()
	} else {
		scores = make([]float64, len(sentences))
		for si, vec := range vecs {
			for _, id := range vec {
				scores[si] += keyWeight[id]
			}
		}
	}

	order := make([]int, len(sentences))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	picked := order[:s.opts.Sentences]
	sort.Ints(picked)

	parts := make([]string, 0, len(picked))
	for _, idx := range picked {
		parts = append(parts, sentences[idx].text)
	}
	return strings.Join(parts, " "), nil
}

// topKeywords ranks keyphrases (runs of candidate words) and returns the
// words of the best ones with their word rank.
func topKeywords(words []string, runs [][][]int, wordRank []float64, limit int) map[int]float64 {
	type phrase struct {
		key   string
		ids   []int
		score float64
	}

	byKey := map[string]*phrase{}
	var phrases []*phrase
	for _, rs := range runs {
		for _, run := range rs {
			parts := make([]string, len(run))
			for i, id := range run {
				parts[i] = words[id]
			}
			key := strings.Join(parts, " ")
			if _, ok := byKey[key]; ok {
				continue
			}
			sum := 0.0
			for _, id := range run {
				sum += wordRank[id] * wordRank[id]
			}
			p := &phrase{key: key, ids: run, score: math.Sqrt(sum)}
			byKey[key] = p
			phrases = append(phrases, p)
		}
	}

	sort.SliceStable(phrases, func(a, b int) bool {
		if phrases[a].score != phrases[b].score {
			return phrases[a].score > phrases[b].score
		}
		return phrases[a].key < phrases[b].key
	})
	if len(phrases) > limit {
		phrases = phrases[:limit]
	}

	out := map[int]float64{}
	for _, p := range phrases {
		for _, id := range p.ids {
			out[id] = wordRank[id]
		}
	}
	return out
}

func sharedWeight(a, b []int, weight map[int]float64) float64 {
	total := 0.0
	for i, j := 0, 0; i < len(a) && j < len(b); {
		switch {
		case a[i] == b[j]:
			total += weight[a[i]]
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return total
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// finish trims text to at most limit runes and makes it end with '.', '!' or
// '?'. Cuts fall on a word boundary when one exists.
func finish(text string, limit int) string {
	text = strings.TrimRightFunc(text, unicode.IsSpace)
	if text == "" || limit <= 0 {
		return ""
	}

	n := utf8.RuneCountInString(text)
	last, _ := utf8.DecodeLastRuneInString(text)
	switch {
	case n <= limit && isTerminal(last):
		return text
	case n < limit && !isTerminal(last) && (unicode.IsLetter(last) || unicode.IsDigit(last)):
		return text + "."
	}

	cut := strings.TrimRightFunc(cutWords(text, limit-1), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return cut + "."
}

// cutWords returns at most limit runes of text, dropping a trailing partial word.
func cutWords(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if limit <= 0 {
		return ""
	}
	if next := runes[limit]; !unicode.IsLetter(next) && !unicode.IsDigit(next) {
		return string(runes[:limit])
	}
	for i := limit - 1; i > 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return string(runes[:i])
		}
	}
	return string(runes[:limit])
}
