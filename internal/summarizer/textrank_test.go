package summarizer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const economyArticle = `The central bank raised interest rates by a quarter point on Tuesday. ` +
	`Economists said the interest rate increase was widely expected by bond markets. ` +
	`Inflation has stayed above the central bank target for most of the year. ` +
	`The local football club won its third match in a row. ` +
	`Bond markets rallied after the central bank signalled a pause in rate increases. ` +
	`Retail investors moved money from savings accounts into bond funds. ` +
	`The weather office expects heavy rain across the coast this weekend. ` +
	`Analysts expect inflation to ease as interest rates bite into consumer demand.`

func newTestSummarizer(t *testing.T, opts Options) *TextRank {
	t.Helper()

	model, err := LoadModel("")
	require.NoError(t, err)
	s, err := New(model, opts, nil)
	require.NoError(t, err)
	return s
}

func TestSummarizeSelectsCentralSentencesInOrder(t *testing.T) {
	t.Parallel()

	s := newTestSummarizer(t, Options{})
	summary := s.Summarize(economyArticle)

	require.NotEmpty(t, summary)
	assert.LessOrEqual(t, len(summary), len(economyArticle))
	assert.True(t, strings.HasSuffix(summary, "."))

	picked := s.model.split(summary)
	require.Len(t, picked, DefaultSentences)

	last := -1
	for _, sent := range picked {
		idx := strings.Index(economyArticle, sent.text)
		require.GreaterOrEqual(t, idx, 0, "sentence %q not in source", sent.text)
		assert.Greater(t, idx, last, "sentences out of order")
		last = idx
	}

	assert.NotContains(t, summary, "football")
	assert.NotContains(t, summary, "weather")
}

func TestSummarizeShortInputIsReturned(t *testing.T) {
	t.Parallel()

	s := newTestSummarizer(t, Options{})

	assert.Equal(t, "Markets rose today!", s.Summarize("  Markets rose today!  "))
	assert.Equal(t, "Markets rose today.", s.Summarize("Markets rose today,"))
	assert.Equal(t, "Markets rose.", s.Summarize("Markets rose today"))
	assert.Equal(t, "", s.Summarize("   "))
}

func TestSummarizeFewSentencesKeepsText(t *testing.T) {
	t.Parallel()

	s := newTestSummarizer(t, Options{})
	text := "Exports grew strongly in the third quarter of the financial year. Imports fell as oil prices dropped sharply."

	assert.Equal(t, text, s.Summarize(text))
}

func TestSummarizeTruncatesLongShortInput(t *testing.T) {
	t.Parallel()

	s := newTestSummarizer(t, Options{})
	summary := s.Summarize(strings.Repeat("x", 1500))

	assert.Equal(t, DefaultMaxChars, utf8.RuneCountInString(summary))
	assert.True(t, strings.HasSuffix(summary, "."))
}

func TestSummarizeFallsBackWhenNothingRanks(t *testing.T) {
	t.Parallel()

	s := newTestSummarizer(t, Options{})
	text := "It is. It was. It is. It was. It is. It was. It is."

	assert.Equal(t, text, s.Summarize(text))
}

func TestSummarizeHonoursSentenceOption(t *testing.T) {
	t.Parallel()

	s := newTestSummarizer(t, Options{Sentences: 2})
	picked := s.model.split(s.Summarize(economyArticle))

	assert.Len(t, picked, 2)
}

func TestSummarizeBoundsUnpunctuatedBody(t *testing.T) {
	t.Parallel()

	s := newTestSummarizer(t, Options{})

	long := strings.TrimSpace(strings.Repeat("markets traders bonds rally ", 750))
	summary := s.Summarize(long)
	assert.LessOrEqual(t, utf8.RuneCountInString(summary), DefaultMaxChars)
	assert.True(t, strings.HasSuffix(summary, "."))
	assert.True(t, strings.HasPrefix(long, strings.TrimSuffix(summary, ".")), "cut must fall on a word boundary")
	assert.NotContains(t, []string{"marke", "trader", "bond", "rall"}, lastWord(summary))

	sentence := strings.TrimSpace(strings.Repeat("exports rose again ", 6))[:100]
	summary = s.Summarize(sentence)
	assert.LessOrEqual(t, len(summary), len(sentence))
	assert.True(t, strings.HasSuffix(summary, "."))
}

func lastWord(text string) string {
	fields := strings.Fields(strings.TrimSuffix(text, "."))
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

func TestSplitKeepsAbbreviations(t *testing.T) {
	t.Parallel()

	model, err := LoadModel("")
	require.NoError(t, err)

	got := model.split("Mr. Modi said rates will rise. Markets fell 2.5 per cent on Monday. Really?")

	texts := make([]string, 0, len(got))
	for _, s := range got {
		texts = append(texts, s.text)
	}
	assert.Equal(t, []string{
		"Mr. Modi said rates will rise.",
		"Markets fell 2.5 per cent on Monday.",
		"Really?",
	}, texts)
	assert.Equal(t, []string{"mr", "modi", "said", "rates", "will", "rise"}, got[0].tokens)
}

func TestFinish(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "done.", finish("done", 10))
	assert.Equal(t, "done?", finish("done?  ", 10))
	assert.Equal(t, "rates rose.", finish("rates rose sharply", 14))
	assert.Equal(t, "abc.", finish("abcdef", 4))
	assert.Equal(t, "", finish("   ", 10))
}

func TestLoadModel(t *testing.T) {
	t.Parallel()

	model, err := LoadModel("")
	require.NoError(t, err)
	assert.True(t, model.IsStopword("the"))
	assert.False(t, model.IsStopword("inflation"))

	dir := t.TempDir()
	custom := filepath.Join(dir, "stop.txt")
	require.NoError(t, os.WriteFile(custom, []byte("# custom\nFoo\n\nbar\n"), 0o600))

	model, err = LoadModel(custom)
	require.NoError(t, err)
	assert.Equal(t, 2, model.Size())
	assert.True(t, model.IsStopword("foo"))

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("# nothing\n"), 0o600))
	_, err = LoadModel(empty)
	assert.Error(t, err)

	_, err = LoadModel(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)

	_, err = New(nil, Options{}, nil)
	assert.Error(t, err)
}
