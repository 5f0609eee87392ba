package preview

import (
	"regexp"
	"strings"
)

// BlockKind identifies a block inside an answer body.
type BlockKind int

const (
	Paragraph BlockKind = iota
	BulletList
	OrderedList
)

// Block is a paragraph (Lines are its source lines) or a list (Lines are its items).
type Block struct {
	Kind  BlockKind
	Lines []string
}

type blockState int

const (
	stateIdle blockState = iota
	stateInParagraph
	stateInBulletList
	stateInOrderedList
)

var (
	bulletLine  = regexp.MustCompile(`^[-*•]\s+(.+)$`)
	orderedLine = regexp.MustCompile(`^\d+\.\s+(.+)$`)
)

// blockSplitter is the line state machine behind ParseBlocks.
type blockSplitter struct {
	state   blockState
	pending []string
	blocks  []Block
}

func (s *blockSplitter) flush() {
	if len(s.pending) > 0 {
		var kind BlockKind
		switch s.state {
		case stateInBulletList:
			kind = BulletList
		case stateInOrderedList:
			kind = OrderedList
		default:
			kind = Paragraph
		}
		s.blocks = append(s.blocks, Block{Kind: kind, Lines: s.pending})
	}
	s.pending = nil
	s.state = stateIdle
}

func (s *blockSplitter) enter(state blockState, line string) {
	if s.state != state {
		s.flush()
		s.state = state
	}
	s.pending = append(s.pending, line)
}

func (s *blockSplitter) line(raw string) {
	line := strings.TrimSpace(raw)
	if line == "" {
		s.flush()
		return
	}
	if m := bulletLine.FindStringSubmatch(line); m != nil {
		s.enter(stateInBulletList, m[1])
		return
	}
	if m := orderedLine.FindStringSubmatch(line); m != nil {
		s.enter(stateInOrderedList, m[1])
		return
	}
	s.enter(stateInParagraph, line)
}

// ParseBlocks splits an answer body into paragraphs and lists. A blank line
// or a change of block type closes the current block.
func ParseBlocks(body string) []Block {
	var s blockSplitter
	for _, line := range strings.Split(normalizeNewlines(body), "\n") {
		s.line(line)
	}
	s.flush()
	return s.blocks
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
