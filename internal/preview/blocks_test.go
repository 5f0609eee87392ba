package preview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBlocks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Block
	}{
		{
			name: "single paragraph",
			in:   "line one\nline two",
			want: []Block{{Kind: Paragraph, Lines: []string{"line one", "line two"}}},
		},
		{
			name: "blank line splits paragraphs",
			in:   "first\n\n\nsecond",
			want: []Block{
				{Kind: Paragraph, Lines: []string{"first"}},
				{Kind: Paragraph, Lines: []string{"second"}},
			},
		},
		{
			name: "bullet markers",
			in:   "- dash\n* star\n• dot",
			want: []Block{{Kind: BulletList, Lines: []string{"dash", "star", "dot"}}},
		},
		{
			name: "list type change flushes",
			in:   "1. one\n2. two\n- three",
			want: []Block{
				{Kind: OrderedList, Lines: []string{"one", "two"}},
				{Kind: BulletList, Lines: []string{"three"}},
			},
		},
		{
			name: "paragraph then list then paragraph",
			in:   "intro\n- a\noutro",
			want: []Block{
				{Kind: Paragraph, Lines: []string{"intro"}},
				{Kind: BulletList, Lines: []string{"a"}},
				{Kind: Paragraph, Lines: []string{"outro"}},
			},
		},
		{
			name: "crlf and indentation",
			in:   "  - a\r\n    - b\r\n",
			want: []Block{{Kind: BulletList, Lines: []string{"a", "b"}}},
		},
		{
			name: "emphasis at line start is not a bullet",
			in:   "*really* good",
			want: []Block{{Kind: Paragraph, Lines: []string{"*really* good"}}},
		},
		{
			name: "empty",
			in:   "\n\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseBlocks(tt.in))
		})
	}
}
