package generator

import (
	"sort"
	"strings"

	"github.com/mlindgren/capsuled/internal/model"
)

// Fixed weights for SearchNotes field matches
const (
	weightTitle    = 5.0
	weightKeyPoint = 3.0
	weightConcept  = 2.0
	weightTag      = 1.5
	weightContent  = 1.0
)

// SearchOptions controls SearchNotes behavior
type SearchOptions struct {
	// IncludeContent also matches against raw section content
	IncludeContent bool
	MaxResults     int
}

// SearchNotes scores each section of organized notes against a query. It is
// a pure function: no external calls, no mutation of the notes. Results come
// back in non-increasing relevance order, truncated to MaxResults. An empty
// query always yields no results.
func SearchNotes(notes *model.OrganizedNotes, query string, opts SearchOptions) []model.NotesSearchHit {
	if notes == nil {
		return nil
	}

	terms := significantWords(query)
	if len(terms) == 0 {
		return nil
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	var hits []model.NotesSearchHit
	for i, section := range notes.Sections {
		score := scoreSection(&section, terms, opts.IncludeContent)
		if score <= 0 {
			continue
		}

		hits = append(hits, model.NotesSearchHit{
			SectionIndex:   i,
			Title:          section.Title,
			RelevanceScore: score,
			Snippet:        truncateText(section.Content, 200),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].RelevanceScore > hits[j].RelevanceScore
	})

	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}

	return hits
}

func scoreSection(section *model.NoteSection, terms []string, includeContent bool) float64 {
	title := strings.ToLower(section.Title)
	content := strings.ToLower(section.Content)

	var score float64
	for _, term := range terms {
		if strings.Contains(title, term) {
			score += weightTitle
		}
		for _, point := range section.KeyPoints {
			if strings.Contains(strings.ToLower(point), term) {
				score += weightKeyPoint
				break
			}
		}
		for _, concept := range section.Concepts {
			if strings.Contains(strings.ToLower(concept), term) {
				score += weightConcept
				break
			}
		}
		for _, tag := range section.Tags {
			if strings.Contains(strings.ToLower(tag), term) {
				score += weightTag
				break
			}
		}
		if includeContent && strings.Contains(content, term) {
			score += weightContent
		}
	}

	return score
}
