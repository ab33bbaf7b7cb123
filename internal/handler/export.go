package handler

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mlindgren/capsuled/internal/middleware"
	"github.com/mlindgren/capsuled/internal/model"
)

// ExportCSV streams the user's capsules as a CSV report
func (h *CapsuleHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	const pageSize = 1000

	// Fetch first page before writing headers to allow clean error response
	capsules, err := h.repo.ListByUser(ctx, userID, pageSize, 0)
	if err != nil {
		slog.Error("failed to list capsules", "handler", "ExportCSV", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list capsules")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=capsuled-export-%s.csv", time.Now().Format("2006-01-02")))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	writer.Write([]string{
		"Date", "URL", "Title", "Status", "Cards", "Questions", "Note Sections", "Reading Time (min)",
	})

	offset := 0
	for len(capsules) > 0 {
		for i := range capsules {
			writer.Write(capsuleRow(&capsules[i]))
		}
		if len(capsules) < pageSize {
			break
		}
		offset += pageSize
		capsules, err = h.repo.ListByUser(ctx, userID, pageSize, offset)
		if err != nil {
			slog.Error("failed to list capsules", "handler", "ExportCSV", "offset", offset, "error", err)
			return
		}
	}
}

func capsuleRow(c *model.Capsule) []string {
	cards, questions, sections, readingMin := 0, 0, 0, 0
	if set := c.LearningContent.Flashcards; set != nil {
		cards = len(set.Cards)
	}
	if quiz := c.LearningContent.Quiz; quiz != nil {
		questions = len(quiz.Questions)
	}
	if notes := c.LearningContent.Notes; notes != nil {
		sections = len(notes.Sections)
		readingMin = notes.Metadata.ReadingTimeMins
	}

	return []string{
		c.StartedAt.Format("2006-01-02"),
		c.VideoURL,
		c.Title,
		string(c.Status),
		strconv.Itoa(cards),
		strconv.Itoa(questions),
		strconv.Itoa(sections),
		strconv.Itoa(readingMin),
	}
}
