package normalize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"LeadScout/internal/domain"
)

// MinContentLength is the default floor below which normalized content is
// considered too low-signal to be worth a scorer call.
const MinContentLength = 50

// Normalizer converts raw platform items into scoring candidates.
type Normalizer struct {
	minLength int
}

// New builds a normalizer; a non-positive minLength falls back to the default.
func New(minLength int) *Normalizer {
	if minLength <= 0 {
		minLength = MinContentLength
	}
	return &Normalizer{minLength: minLength}
}

// Candidates maps each raw item to a Candidate bound to the keyword,
// dropping items whose content does not clear the minimum length.
func (n *Normalizer) Candidates(keyword domain.Keyword, items []domain.RawItem) []domain.Candidate {
	candidates := make([]domain.Candidate, 0, len(items))
	for _, item := range items {
		content := Content(item)
		if len(content) <= n.minLength {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			KeywordID: keyword.ID,
			Platform:  item.Platform,
			Content:   content,
			Author:    item.Author,
			PostURL:   item.PostURL,
			Metadata:  item.Metadata,
		})
	}
	return candidates
}

// Content extracts the canonical text of an item: title and body joined by
// a blank line for post-like items, the body alone for comment-like ones.
// An HTML body is stripped to text when no plain body is present.
func Content(item domain.RawItem) string {
	body := strings.TrimSpace(item.Body)
	if body == "" && item.BodyHTML != "" {
		body = stripHTML(item.BodyHTML)
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		return body
	}
	if body == "" {
		return title
	}
	return title + "\n\n" + body
}

func stripHTML(raw string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(doc.Text())
}
