package chunking

import (
	"time"

	"github.com/ekomarov/fundchat/internal/core/domain"
)

// Builder turns one fund's record run into overlapping text windows sized
// to a token budget. Records are atomic: a record is never split across
// windows, so every record appears whole in at least one chunk.
type Builder struct {
	MaxTokens int
	Overlap   int
}

func NewBuilder(maxTokens, overlap int) *Builder {
	if maxTokens <= 0 {
		maxTokens = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxTokens/2 {
		overlap = maxTokens / 4
	}
	return &Builder{MaxTokens: maxTokens, Overlap: overlap}
}

type block struct {
	text    string
	tokens  int
	hasPL   bool
	secType string
	year    int
}

// HoldingsChunks builds the chunk sequence for one fund's holdings in
// stable source-row order. Chunk IDs are assigned by the caller.
func (b *Builder) HoldingsChunks(fund string, records []domain.HoldingRecord) []domain.Chunk {
	blocks := make([]block, 0, len(records))
	for _, r := range records {
		text := FormatHolding(r)
		year := 2023
		if !r.AsOfDate.IsZero() {
			year = r.AsOfDate.Year()
		}
		blocks = append(blocks, block{
			text:    text,
			tokens:  estimateTokens(text),
			hasPL:   r.PLYTD != 0,
			secType: r.SecurityType,
			year:    year,
		})
	}
	return b.window(fund, domain.KindHoldings, blocks)
}

// TradesChunks builds the chunk sequence for one fund's trades.
func (b *Builder) TradesChunks(fund string, records []domain.TradeRecord) []domain.Chunk {
	blocks := make([]block, 0, len(records))
	for _, r := range records {
		text := FormatTrade(r)
		year := 2023
		if td, err := time.Parse("02/01/06", r.TradeDate); err == nil {
			year = td.Year()
		}
		blocks = append(blocks, block{
			text:    text,
			tokens:  estimateTokens(text),
			secType: r.SecurityType,
			year:    year,
		})
	}
	return b.window(fund, domain.KindTrades, blocks)
}

// window groups blocks greedily up to the token budget. When a window
// closes, the blocks forming its trailing Overlap tokens reopen the next
// window so record runs spanning a boundary stay visible in one chunk.
func (b *Builder) window(fund string, kind domain.EntityKind, blocks []block) []domain.Chunk {
	if len(blocks) == 0 {
		return nil
	}
	var (
		chunks  []domain.Chunk
		current []block
		tokens  int
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, b.assemble(fund, kind, current))
		tail := b.overlapTail(current)
		current = append([]block(nil), tail...)
		tokens = 0
		for _, bl := range current {
			tokens += bl.tokens
		}
	}
	for _, bl := range blocks {
		if len(current) > 0 && tokens+bl.tokens > b.MaxTokens {
			flush()
		}
		current = append(current, bl)
		tokens += bl.tokens
	}
	if len(current) > 0 {
		chunks = append(chunks, b.assemble(fund, kind, current))
	}
	return chunks
}

// overlapTail returns the longest suffix of the closed window whose token
// total fits the overlap budget. The whole window never carries over, so a
// flush always makes progress.
func (b *Builder) overlapTail(window []block) []block {
	if b.Overlap == 0 || len(window) < 2 {
		return nil
	}
	sum := 0
	start := len(window)
	for i := len(window) - 1; i > 0; i-- {
		if sum+window[i].tokens > b.Overlap {
			break
		}
		sum += window[i].tokens
		start = i
	}
	return window[start:]
}

func (b *Builder) assemble(fund string, kind domain.EntityKind, window []block) domain.Chunk {
	var (
		sb    []byte
		hasPL bool
		year  int
		types []string
		seen  = map[string]bool{}
	)
	for i, bl := range window {
		if i > 0 {
			sb = append(sb, '\n')
		}
		sb = append(sb, bl.text...)
		if bl.hasPL {
			hasPL = true
		}
		if year == 0 {
			year = bl.year
		}
		if bl.secType != "" && !seen[bl.secType] && len(types) < 5 {
			seen[bl.secType] = true
			types = append(types, bl.secType)
		}
	}
	if year == 0 {
		year = 2023
	}
	return domain.Chunk{
		Fund:          fund,
		Kind:          kind,
		HasPL:         hasPL,
		RowCount:      len(window),
		SecurityTypes: types,
		Year:          year,
		Text:          string(sb),
	}
}

// estimateTokens approximates subword-tokenizer counts at roughly four
// characters per token, which tracks closely enough for budget purposes
// on the tabular text this package produces.
func estimateTokens(s string) int {
	n := (len(s) + 3) / 4
	if n == 0 {
		n = 1
	}
	return n
}
