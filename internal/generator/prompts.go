package generator

import (
	"fmt"
	"strings"

	"github.com/mlindgren/capsuled/internal/ai"
	"github.com/mlindgren/capsuled/internal/model"
)

const systemInstruction = "You generate learning materials from video transcripts. " +
	"Always respond with a single valid JSON object matching the requested shape, with no extra commentary."

// writeVideoContext appends shared video metadata to a prompt
func writeVideoContext(sb *strings.Builder, video model.VideoMetadata) {
	if video.Title != "" {
		sb.WriteString("Video title: ")
		sb.WriteString(video.Title)
		sb.WriteString("\n")
	}
	if video.ChannelTitle != "" {
		sb.WriteString("Channel: ")
		sb.WriteString(video.ChannelTitle)
		sb.WriteString("\n")
	}
	if video.Description != "" {
		sb.WriteString("Description: ")
		sb.WriteString(truncateText(video.Description, 500))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

// writeInsights grounds a prompt with precomputed text-analytics results
func writeInsights(sb *strings.Builder, insights *ai.Insights) {
	if insights == nil {
		return
	}

	if len(insights.KeyPhrases) > 0 {
		sb.WriteString("Key phrases from analysis: ")
		sb.WriteString(strings.Join(insights.KeyPhrases, ", "))
		sb.WriteString("\n")
	}
	if len(insights.Entities) > 0 {
		names := make([]string, 0, len(insights.Entities))
		for _, e := range insights.Entities {
			names = append(names, e.Text)
		}
		sb.WriteString("Named entities: ")
		sb.WriteString(strings.Join(names, ", "))
		sb.WriteString("\n")
	}
	if insights.Sentiment != "" {
		sb.WriteString("Overall sentiment: ")
		sb.WriteString(insights.Sentiment)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}

func buildSummaryPrompt(transcript string, video model.VideoMetadata, insights *ai.Insights) string {
	var sb strings.Builder

	sb.WriteString("Summarize this video transcript for a learning platform. Return ONLY a JSON object:\n")
	sb.WriteString(`{"summary": "3-6 sentence summary", "key_points": ["5-8 key points"], `)
	sb.WriteString(`"topics": ["3-6 topics"], "confidence": 0.0-1.0, "language": "ISO 639-1 code"}`)
	sb.WriteString("\n\n")

	writeVideoContext(&sb, video)
	writeInsights(&sb, insights)

	sb.WriteString("Transcript:\n")
	sb.WriteString(truncateText(transcript, promptTranscriptCap))

	return sb.String()
}

func buildQuizPrompt(content string, video model.VideoMetadata, insights *ai.Insights, typeCounts map[model.QuesType]int, difficultyCounts map[model.Difficulty]int, timeLimit int) string {
	var sb strings.Builder

	sb.WriteString("Create quiz questions from this content. Return ONLY a JSON object:\n")
	sb.WriteString(`{"questions": [{"type": "multiple-choice|true-false|short-answer|fill-blank", `)
	sb.WriteString(`"question": "...", "options": ["only for multiple-choice"], "answer": "...", `)
	sb.WriteString(`"explanation": "...", "difficulty": "easy|medium|hard", "points": 1-5, `)
	sb.WriteString(`"time_limit": 15-300, "tags": [], "category": "...", "hints": []}]}`)
	sb.WriteString("\n\nGenerate exactly these counts per question type:\n")
	for qType, count := range typeCounts {
		fmt.Fprintf(&sb, "- %s: %d\n", qType, count)
	}
	sb.WriteString("And exactly these counts per difficulty:\n")
	for difficulty, count := range difficultyCounts {
		fmt.Fprintf(&sb, "- %s: %d\n", difficulty, count)
	}
	if timeLimit > 0 {
		fmt.Fprintf(&sb, "Keep each question's time limit at or below %d seconds.\n", timeLimit)
	}
	sb.WriteString("\n")

	writeVideoContext(&sb, video)
	writeInsights(&sb, insights)

	sb.WriteString("Content:\n")
	sb.WriteString(truncateText(content, promptTranscriptCap))

	return sb.String()
}

func buildFlashcardPrompt(content string, video model.VideoMetadata, opts model.GenerationOptions, maxCards int) string {
	var sb strings.Builder

	sb.WriteString("Create flashcards from this content. Return ONLY a JSON object:\n")
	sb.WriteString(`{"cards": [{"front": "question or term", "back": "answer or definition", `)
	sb.WriteString(`"type": "definition|concept|application|fact", "difficulty": "easy|medium|hard", `)
	sb.WriteString(`"category": "...", "tags": []}]}`)
	fmt.Fprintf(&sb, "\n\nGenerate at most %d cards.\n", maxCards)

	if opts.CardDifficulty != "" && opts.CardDifficulty != model.DifficultyMixed {
		fmt.Fprintf(&sb, "All cards should be %s difficulty.\n", opts.CardDifficulty)
	}
	if len(opts.CardTypes) > 0 {
		types := make([]string, 0, len(opts.CardTypes))
		for _, t := range opts.CardTypes {
			types = append(types, string(t))
		}
		sb.WriteString("Only use these card types: ")
		sb.WriteString(strings.Join(types, ", "))
		sb.WriteString("\n")
	}
	if len(opts.FocusAreas) > 0 {
		sb.WriteString("Focus on: ")
		sb.WriteString(strings.Join(opts.FocusAreas, ", "))
		sb.WriteString("\n")
	}
	if len(opts.Objectives) > 0 {
		sb.WriteString("Learning objectives: ")
		sb.WriteString(strings.Join(opts.Objectives, "; "))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	writeVideoContext(&sb, video)

	sb.WriteString("Content:\n")
	sb.WriteString(truncateText(content, promptTranscriptCap))

	return sb.String()
}

func buildNotesPrompt(content string, video model.VideoMetadata, opts model.GenerationOptions, insights *ai.Insights, maxSections int) string {
	var sb strings.Builder

	sb.WriteString("Organize this content into structured study notes. Return ONLY a JSON object:\n")
	sb.WriteString(`{"sections": [{"title": "...", "content": "...", "level": 1-3, `)
	sb.WriteString(`"type": "introduction|main-content|conclusion", "key_points": [], "concepts": [], "tags": [], `)
	sb.WriteString(`"difficulty": "beginner|intermediate|advanced", "importance": 0.0-1.0}], `)
	sb.WriteString(`"main_topics": [], "key_terms": [], "primary_category": "...", `)
	sb.WriteString(`"secondary_category": "...", "subjects": [], "tags": []}`)
	fmt.Fprintf(&sb, "\n\nUse at most %d sections.\n", maxSections)
	if opts.NotesDetail != "" {
		fmt.Fprintf(&sb, "Detail level: %s.\n", opts.NotesDetail)
	}
	sb.WriteString("\n")

	writeVideoContext(&sb, video)
	writeInsights(&sb, insights)

	sb.WriteString("Content:\n")
	sb.WriteString(truncateText(content, promptTranscriptCap))

	return sb.String()
}

func buildMindMapPrompt(content string, video model.VideoMetadata) string {
	var sb strings.Builder

	sb.WriteString("Build a mind map of this content. Return ONLY a JSON object, at most three levels deep:\n")
	sb.WriteString(`{"root": {"label": "central topic", "children": [{"label": "branch", `)
	sb.WriteString(`"children": [{"label": "leaf"}]}]}}`)
	sb.WriteString("\n\n")

	writeVideoContext(&sb, video)

	sb.WriteString("Content:\n")
	sb.WriteString(truncateText(content, promptTranscriptCap))

	return sb.String()
}
