package ai

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/graphview/backend/pkg/common"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts the tokens a model would see for a piece of text.
type TokenCounter interface {
	CountTokens(text string) int
}

// TiktokenCounter counts tokens with the o200k_base encoding. The encoding is
// loaded on first use.
type TiktokenCounter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

func NewTiktokenCounter() *TiktokenCounter {
	return &TiktokenCounter{}
}

// CountTokens returns the token count of text. If the encoding cannot be
// loaded it falls back to a rough estimate of four bytes per token.
func (c *TiktokenCounter) CountTokens(text string) int {
	c.once.Do(func() {
		c.enc, c.err = tiktoken.GetEncoding("o200k_base")
	})
	if c.err != nil {
		return (len(text) + 3) / 4
	}
	return len(c.enc.Encode(text, nil, nil))
}

// RenderGraphContext renders entities and relations as one JSON object per
// line and stops once budget tokens are used. A budget <= 0 disables the
// limit. The second return value reports whether anything was left out.
func RenderGraphContext(
	counter TokenCounter,
	entities []common.Entity,
	relations []common.Relation,
	budget int,
) (string, bool) {
	var sb strings.Builder
	used := 0

	write := func(line string) bool {
		if budget > 0 {
			n := counter.CountTokens(line) + 1
			if used+n > budget {
				return false
			}
			used += n
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
		return true
	}

	if !write("Current entities:") {
		return sb.String(), len(entities) > 0 || len(relations) > 0
	}
	for _, e := range entities {
		raw, err := json.Marshal(e)
		if err != nil {
			continue
		}
		if !write(string(raw)) {
			return sb.String(), true
		}
	}

	if !write("Current relations:") {
		return sb.String(), len(relations) > 0
	}
	for _, r := range relations {
		raw, err := json.Marshal(r)
		if err != nil {
			continue
		}
		if !write(string(raw)) {
			return sb.String(), true
		}
	}

	return sb.String(), false
}
