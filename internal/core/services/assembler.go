package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/meridian-labs/briefing/internal/core/domain"
)

// DefaultScoreThreshold is the minimum similarity a match needs to be
// offered to the model. Matches below it are treated as noise.
const DefaultScoreThreshold = 0.7

// DefaultHistoryWindow is how many recent messages (not exchanges) are
// replayed into the prompt.
const DefaultHistoryWindow = 6

// DefaultPersona is the base instruction when none is configured.
const DefaultPersona = "You are Briefing, a helpful assistant that answers questions " +
	"using the user's ingested documents and news articles."

// AssembledPrompt is the outcome of context assembly for one turn.
type AssembledPrompt struct {
	// SystemPrompt is the full instruction block handed to the model.
	SystemPrompt string

	// Articles lists the matches that survived relevance filtering, in
	// the order they are numbered in the prompt.
	Articles []domain.ArticleRef

	// HasContext is true when at least one match survived.
	HasContext bool
}

// Assembler builds the bounded textual context for a turn from
// retrieval results and recent conversation history. It never fails:
// missing context or history degrades to a context-free instruction
// block.
type Assembler struct {
	scoreThreshold float64
	historyWindow  int
	persona        string
}

// AssemblerOption configures the assembler.
type AssemblerOption func(*Assembler)

// WithScoreThreshold sets the minimum relevance score.
func WithScoreThreshold(t float64) AssemblerOption {
	return func(a *Assembler) {
		if t >= 0 {
			a.scoreThreshold = t
		}
	}
}

// WithHistoryWindow sets how many recent messages are included.
func WithHistoryWindow(n int) AssemblerOption {
	return func(a *Assembler) {
		if n >= 0 {
			a.historyWindow = n
		}
	}
}

// WithPersona sets the base persona instruction.
func WithPersona(p string) AssemblerOption {
	return func(a *Assembler) {
		if p != "" {
			a.persona = p
		}
	}
}

// NewAssembler creates a context assembler.
func NewAssembler(opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		scoreThreshold: DefaultScoreThreshold,
		historyWindow:  DefaultHistoryWindow,
		persona:        DefaultPersona,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble filters the retrieval result, renders surviving matches and
// recent history, and composes the system instruction block.
func (a *Assembler) Assemble(retrieval domain.RetrievalResult, history []domain.Message) AssembledPrompt {
	kept := make([]domain.Match, 0, len(retrieval.Matches))
	for _, m := range retrieval.Matches {
		if m.Score >= a.scoreThreshold && strings.TrimSpace(m.ChunkText()) != "" {
			kept = append(kept, m)
		}
	}
	// The index contract says descending already; keep it true even
	// for misbehaving adapters since ranks become citations.
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })

	var b strings.Builder
	b.WriteString(a.persona)

	articles := make([]domain.ArticleRef, 0, len(kept))
	if len(kept) > 0 {
		b.WriteString("\n\nRelevant articles:\n\n")
		for i, m := range kept {
			if i > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "Article %d: %s\n%s", i+1, m.Title(), m.ChunkText())
			articles = append(articles, domain.ArticleRef{Title: m.Title(), Score: m.Score})
		}
	}

	if recent := lastMessages(history, a.historyWindow); len(recent) > 0 {
		b.WriteString("\n\nRecent conversation:\n")
		for _, msg := range recent {
			fmt.Fprintf(&b, "%s: %s\n", roleLabel(msg.Sender), msg.Text)
		}
	}

	if len(kept) > 0 {
		b.WriteString("\n\nAnswer using the articles above when they are relevant, " +
			"and cite them by number (for example \"Article 2\"). " +
			"If the articles do not contain the information needed, say so honestly. " +
			"Never fabricate facts or sources.")
	} else {
		b.WriteString("\n\nNo relevant articles were found for this question. " +
			"Say honestly that you do not have that information in your sources; " +
			"do not fabricate facts or citations.")
	}

	return AssembledPrompt{
		SystemPrompt: b.String(),
		Articles:     articles,
		HasContext:   len(kept) > 0,
	}
}

func lastMessages(history []domain.Message, n int) []domain.Message {
	if n <= 0 || len(history) == 0 {
		return nil
	}
	if n > len(history) {
		n = len(history)
	}
	return history[len(history)-n:]
}

func roleLabel(s domain.Sender) string {
	if s == domain.SenderAssistant {
		return "Assistant"
	}
	return "User"
}
