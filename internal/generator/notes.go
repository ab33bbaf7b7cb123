package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mlindgren/capsuled/internal/ai"
	"github.com/mlindgren/capsuled/internal/model"
)

const (
	defaultMaxSections      = 8
	defaultMinSectionLength = 80
)

// NotesOrganizer produces the organized-notes artifact for a capsule
type NotesOrganizer struct {
	llm      ai.Completer
	analyzer ai.Analyzer
	store    ArtifactStore
}

// NewNotesOrganizer creates a new notes organizer. The analyzer is
// optional; when present its entities feed the search index.
func NewNotesOrganizer(llm ai.Completer, analyzer ai.Analyzer, store ArtifactStore) *NotesOrganizer {
	return &NotesOrganizer{llm: llm, analyzer: analyzer, store: store}
}

// Organize builds, orders, and persists the notes artifact
func (o *NotesOrganizer) Organize(ctx context.Context, req *Request) (*model.OrganizedNotes, error) {
	transcript, segments, err := resolveTranscript(ctx, o.store, req)
	if err != nil {
		return nil, err
	}

	var insights *ai.Insights
	if o.analyzer != nil {
		insights, err = o.analyzer.Analyze(ctx, transcript, "")
		if err != nil {
			slog.Warn("insights analysis failed, indexing without entities", "capsule_id", req.CapsuleID, "error", err)
			insights = nil
		}
	}

	opts := req.Options
	style := opts.NotesStyle
	if style == "" {
		style = model.NotesHierarchical
	}
	maxSections := opts.MaxSections
	if maxSections <= 0 {
		maxSections = defaultMaxSections
	}
	minLength := opts.MinSectionLength
	if minLength <= 0 {
		minLength = defaultMinSectionLength
	}

	notes, err := o.fromModel(ctx, transcript, req.Video, opts, insights, maxSections)
	if err != nil {
		slog.Warn("model notes failed, using structural fallback", "capsule_id", req.CapsuleID, "error", err)
		notes = fallbackNotes(transcript, minLength, maxSections)
	}

	if len(notes.Sections) > maxSections {
		notes.Sections = notes.Sections[:maxSections]
	}

	if opts.IncludeTimestamp {
		for i := range notes.Sections {
			notes.Sections[i].Timestamp = matchSegment(notes.Sections[i].Content, segments)
		}
	}

	orderSections(notes, style, segments)

	notes.Style = style
	notes.VideoID = req.Video.VideoID
	notes.VideoTitle = req.Video.Title
	notes.GeneratedAt = time.Now().UTC()
	fillNotesDerived(notes)
	if insights != nil {
		notes.SearchIndex.Entities = indexEntities(insights.Entities)
	}

	if err := o.store.SetArtifact(ctx, req.UserID, req.CapsuleID, model.ArtifactNotes, notes); err != nil {
		return nil, fmt.Errorf("failed to persist notes: %w", err)
	}

	return notes, nil
}

type rawSection struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Level      int      `json:"level"`
	Type       string   `json:"type"`
	KeyPoints  []string `json:"key_points"`
	Concepts   []string `json:"concepts"`
	Tags       []string `json:"tags"`
	Difficulty string   `json:"difficulty"`
	Importance float64  `json:"importance"`
}

func (o *NotesOrganizer) fromModel(ctx context.Context, transcript string, video model.VideoMetadata, opts model.GenerationOptions, insights *ai.Insights, maxSections int) (*model.OrganizedNotes, error) {
	raw, err := o.llm.Complete(ctx, ai.CompletionRequest{
		System:      systemInstruction,
		Prompt:      buildNotesPrompt(transcript, video, opts, insights, maxSections),
		Temperature: 0.3,
		MaxTokens:   4096,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Sections          []rawSection `json:"sections"`
		MainTopics        []string     `json:"main_topics"`
		KeyTerms          []string     `json:"key_terms"`
		PrimaryCategory   string       `json:"primary_category"`
		SecondaryCategory string       `json:"secondary_category"`
		Subjects          []string     `json:"subjects"`
		Tags              []string     `json:"tags"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse notes response: %w", err)
	}
	if len(parsed.Sections) == 0 {
		return nil, fmt.Errorf("model returned no sections")
	}

	notes := &model.OrganizedNotes{
		Metadata: model.NotesMetadata{
			MainTopics: parsed.MainTopics,
			KeyTerms:   parsed.KeyTerms,
		},
		Categorization: model.NotesCategorization{
			PrimaryCategory:   parsed.PrimaryCategory,
			SecondaryCategory: parsed.SecondaryCategory,
			Subjects:          parsed.Subjects,
			Tags:              parsed.Tags,
		},
	}

	for _, r := range parsed.Sections {
		if strings.TrimSpace(r.Content) == "" {
			continue
		}

		level := r.Level
		if level < 1 {
			level = 1
		}
		if level > 3 {
			level = 3
		}

		secType := model.SectionType(r.Type)
		switch secType {
		case model.SectionIntroduction, model.SectionMainContent, model.SectionConclusion:
		default:
			secType = model.SectionMainContent
		}

		notes.Sections = append(notes.Sections, model.NoteSection{
			Title:      strings.TrimSpace(r.Title),
			Content:    strings.TrimSpace(r.Content),
			Level:      level,
			Type:       secType,
			KeyPoints:  r.KeyPoints,
			Concepts:   r.Concepts,
			Tags:       r.Tags,
			Difficulty: model.SectionDifficulty(r.Difficulty),
			Importance: r.Importance,
		})
	}

	if len(notes.Sections) == 0 {
		return nil, fmt.Errorf("model returned only empty sections")
	}

	return notes, nil
}

// fallbackNotes splits the transcript into paragraph blocks: first block
// introduction, last block conclusion, the rest main content.
func fallbackNotes(transcript string, minLength, maxSections int) *model.OrganizedNotes {
	blocks := splitBlocks(transcript, minLength)
	if len(blocks) > maxSections {
		blocks = blocks[:maxSections]
	}

	notes := &model.OrganizedNotes{}
	for i, block := range blocks {
		secType := model.SectionMainContent
		title := fmt.Sprintf("Part %d", i+1)
		switch {
		case i == 0:
			secType = model.SectionIntroduction
			title = "Introduction"
		case i == len(blocks)-1 && len(blocks) > 1:
			secType = model.SectionConclusion
			title = "Conclusion"
		}

		notes.Sections = append(notes.Sections, model.NoteSection{
			Title:   title,
			Content: block,
			Level:   1,
			Type:    secType,
		})
	}

	return notes
}

// splitBlocks groups sentences into blocks of at least minLength characters
func splitBlocks(text string, minLength int) []string {
	var (
		blocks  []string
		current strings.Builder
	)

	for _, sentence := range splitSentences(text) {
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
		if current.Len() >= minLength {
			blocks = append(blocks, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		blocks = append(blocks, current.String())
	}

	return blocks
}

// orderSections applies the style's ordering policy. Hierarchical keeps
// generation order; all sorts are stable.
func orderSections(notes *model.OrganizedNotes, style model.NotesStyle, segments []model.TranscriptSegment) {
	switch style {
	case model.NotesByDifficulty:
		sort.SliceStable(notes.Sections, func(i, j int) bool {
			return sectionDifficultyRank(notes.Sections[i].Difficulty) < sectionDifficultyRank(notes.Sections[j].Difficulty)
		})

	case model.NotesChronological:
		if len(segments) == 0 {
			return
		}
		starts := make([]float64, len(notes.Sections))
		for i := range notes.Sections {
			ref := notes.Sections[i].Timestamp
			if ref == nil {
				ref = matchSegment(notes.Sections[i].Content, segments)
			}
			if ref != nil {
				starts[i] = ref.Start
			} else {
				// Unmatched sections sink to the end
				starts[i] = segments[len(segments)-1].End + 1
			}
		}
		indexed := make([]int, len(notes.Sections))
		for i := range indexed {
			indexed[i] = i
		}
		sort.SliceStable(indexed, func(i, j int) bool {
			return starts[indexed[i]] < starts[indexed[j]]
		})
		reordered := make([]model.NoteSection, len(notes.Sections))
		for i, idx := range indexed {
			reordered[i] = notes.Sections[idx]
		}
		notes.Sections = reordered

	case model.NotesTopical:
		clusterSectionsByConcept(notes)
	}
}

// clusterSectionsByConcept groups sections sharing concept tags: each
// unclustered section pulls every later section it shares a concept with
// up next to it.
func clusterSectionsByConcept(notes *model.OrganizedNotes) {
	n := len(notes.Sections)
	used := make([]bool, n)
	ordered := make([]model.NoteSection, 0, n)

	for i := 0; i < n; i++ {
		if used[i] {
			continue
		}
		used[i] = true
		ordered = append(ordered, notes.Sections[i])

		anchor := conceptSet(notes.Sections[i])
		for j := i + 1; j < n; j++ {
			if used[j] {
				continue
			}
			if sharesConcept(anchor, conceptSet(notes.Sections[j])) {
				used[j] = true
				ordered = append(ordered, notes.Sections[j])
			}
		}
	}

	notes.Sections = ordered
}

func conceptSet(s model.NoteSection) map[string]struct{} {
	set := make(map[string]struct{}, len(s.Concepts))
	for _, c := range s.Concepts {
		set[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	return set
}

func sharesConcept(a, b map[string]struct{}) bool {
	for c := range a {
		if _, ok := b[c]; ok {
			return true
		}
	}
	return false
}

// fillNotesDerived computes structure, metadata, and the search index
func fillNotesDerived(notes *model.OrganizedNotes) {
	var wordCount int
	keywords := make(map[string]struct{})

	notes.Structure = model.NotesStructure{SectionCount: len(notes.Sections)}
	for _, s := range notes.Sections {
		wordCount += len(strings.Fields(s.Content))
		switch s.Type {
		case model.SectionIntroduction:
			notes.Structure.HasIntro = true
		case model.SectionConclusion:
			notes.Structure.HasConclusion = true
		}
		if s.Level > notes.Structure.MaxLevel {
			notes.Structure.MaxLevel = s.Level
		}

		for _, w := range significantWords(s.Title) {
			keywords[w] = struct{}{}
		}
		for _, c := range s.Concepts {
			keywords[strings.ToLower(c)] = struct{}{}
		}
	}

	notes.Metadata.WordCount = wordCount
	notes.Metadata.ReadingTimeMins = (wordCount + 199) / 200
	if notes.Metadata.Difficulty == "" {
		notes.Metadata.Difficulty = dominantDifficulty(notes.Sections)
	}

	if len(notes.Categorization.Subjects) == 0 {
		notes.Categorization.Subjects = append([]string(nil), notes.Metadata.MainTopics...)
	}
	if notes.Categorization.SecondaryCategory == "" {
		for _, topic := range notes.Metadata.MainTopics {
			if !strings.EqualFold(topic, notes.Categorization.PrimaryCategory) {
				notes.Categorization.SecondaryCategory = topic
				break
			}
		}
	}

	notes.SearchIndex.Keywords = notes.SearchIndex.Keywords[:0]
	for w := range keywords {
		notes.SearchIndex.Keywords = append(notes.SearchIndex.Keywords, w)
	}
	sort.Strings(notes.SearchIndex.Keywords)
	notes.SearchIndex.Phrases = append([]string(nil), notes.Metadata.KeyTerms...)
}

// indexEntities groups entity texts by type for the search index,
// dropping case-insensitive duplicates within a type.
func indexEntities(entities []ai.Entity) map[string][]string {
	if len(entities) == 0 {
		return nil
	}

	idx := make(map[string][]string)
	seen := make(map[string]struct{})
	for _, e := range entities {
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		typ := strings.ToLower(strings.TrimSpace(e.Type))
		if typ == "" {
			typ = "other"
		}
		key := typ + "\x00" + strings.ToLower(text)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		idx[typ] = append(idx[typ], text)
	}

	return idx
}

func dominantDifficulty(sections []model.NoteSection) model.SectionDifficulty {
	counts := make(map[model.SectionDifficulty]int)
	for _, s := range sections {
		if s.Difficulty != "" {
			counts[s.Difficulty]++
		}
	}

	best := model.SectionIntermediate
	bestCount := 0
	for _, d := range []model.SectionDifficulty{model.SectionBeginner, model.SectionIntermediate, model.SectionAdvanced} {
		if counts[d] > bestCount {
			best = d
			bestCount = counts[d]
		}
	}
	return best
}
