package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const chapteredDoc = `Preface text here.
Chapter 1: The beginning of everything.
Chapter 2: ALPHA content lives here.
Chapter 3: BETA content lives here.`

func TestExtractSection(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		query   string
		want    string
		wantOK  bool
	}{
		{
			name:   "digit reference",
			text:   chapteredDoc,
			query:  "read chapter 2",
			want:   "ALPHA content lives here.",
			wantOK: true,
		},
		{
			name:   "spelled out reference",
			text:   chapteredDoc,
			query:  "read chapter two",
			want:   "ALPHA content lives here.",
			wantOK: true,
		},
		{
			name:   "last chapter runs to end of text",
			text:   chapteredDoc,
			query:  "narrate chapter 3",
			want:   "BETA content lives here.",
			wantOK: true,
		},
		{
			name:   "no section reference in query",
			text:   chapteredDoc,
			query:  "what is this document about",
			wantOK: false,
		},
		{
			name:   "marker missing from text",
			text:   chapteredDoc,
			query:  "read chapter 9",
			wantOK: false,
		},
		{
			name:   "section keyword",
			text:   "Section 1: intro. Section 2: body. Section 3: outro.",
			query:  "read section 2",
			want:   "body.",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractSection(tt.text, tt.query)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestExtractSectionDoubleDigit(t *testing.T) {
	text := `Chapter 1: first words.
Chapter 10: tenth words.
Chapter 11: eleventh words.`

	// "chapter 10" 不能被 "chapter 1" 的标记吸走
	got, ok := ExtractSection(text, "read chapter 10")
	assert.True(t, ok)
	assert.Equal(t, "tenth words.", got)

	// 反过来 "chapter 1" 也不能落到 "Chapter 10" 上
	got, ok = ExtractSection(text, "read chapter 1")
	assert.True(t, ok)
	assert.Equal(t, "first words.\nChapter 10: tenth words.\nChapter 11: eleventh words.", got)
}

func TestExtractSectionCaseInsensitive(t *testing.T) {
	got, ok := ExtractSection("CHAPTER 2: loud content. CHAPTER 3: end.", "Read Chapter Two")
	assert.True(t, ok)
	assert.Equal(t, "loud content.", got)
}
