package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mlindgren/capsuled/internal/ai"
	"github.com/mlindgren/capsuled/internal/model"
)

const maxMindMapDepth = 3

// MindMapGenerator produces the mind map artifact for a capsule
type MindMapGenerator struct {
	llm   ai.Completer
	store ArtifactStore
}

// NewMindMapGenerator creates a new mind map generator
func NewMindMapGenerator(llm ai.Completer, store ArtifactStore) *MindMapGenerator {
	return &MindMapGenerator{llm: llm, store: store}
}

// Generate builds and persists the mind map artifact
func (g *MindMapGenerator) Generate(ctx context.Context, req *Request) (*model.MindMap, error) {
	transcript, _, err := resolveTranscript(ctx, g.store, req)
	if err != nil {
		return nil, err
	}

	root, err := g.fromModel(ctx, transcript, req.Video)
	if err != nil {
		slog.Warn("model mind map failed, using topic fallback", "capsule_id", req.CapsuleID, "error", err)
		root = fallbackMindMap(resolveSummary(ctx, g.store, req), req.Video)
	}

	assignNodeIDs(root, 1)

	mindMap := &model.MindMap{
		Root:        *root,
		NodeCount:   countNodes(root),
		VideoID:     req.Video.VideoID,
		VideoTitle:  req.Video.Title,
		GeneratedAt: time.Now().UTC(),
	}

	if err := g.store.SetArtifact(ctx, req.UserID, req.CapsuleID, model.ArtifactMindMap, mindMap); err != nil {
		return nil, fmt.Errorf("failed to persist mind map: %w", err)
	}

	return mindMap, nil
}

type rawNode struct {
	Label    string    `json:"label"`
	Children []rawNode `json:"children"`
}

func (g *MindMapGenerator) fromModel(ctx context.Context, transcript string, video model.VideoMetadata) (*model.MindMapNode, error) {
	raw, err := g.llm.Complete(ctx, ai.CompletionRequest{
		System:      systemInstruction,
		Prompt:      buildMindMapPrompt(transcript, video),
		Temperature: 0.3,
		MaxTokens:   2048,
		JSONMode:    true,
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Root rawNode `json:"root"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse mind map response: %w", err)
	}
	if parsed.Root.Label == "" {
		return nil, fmt.Errorf("model returned empty mind map")
	}

	return convertNode(parsed.Root, 1), nil
}

func convertNode(r rawNode, depth int) *model.MindMapNode {
	node := &model.MindMapNode{Label: r.Label}
	if depth >= maxMindMapDepth {
		return node
	}
	for _, child := range r.Children {
		if child.Label == "" {
			continue
		}
		node.Children = append(node.Children, *convertNode(child, depth+1))
	}
	return node
}

// fallbackMindMap hangs topic branches with key-point leaves off the title
func fallbackMindMap(summary *model.SummaryResult, video model.VideoMetadata) *model.MindMapNode {
	rootLabel := video.Title
	if rootLabel == "" {
		rootLabel = "Video"
	}
	root := &model.MindMapNode{Label: rootLabel}

	if summary == nil {
		return root
	}

	for _, topic := range summary.Topics {
		branch := model.MindMapNode{Label: topic}
		topicWords := wordSet(topic)
		for _, point := range summary.KeyPoints {
			if overlapRatio(topicWords, wordSet(point)) > 0 {
				branch.Children = append(branch.Children, model.MindMapNode{
					Label: truncateText(point, 80),
				})
			}
		}
		root.Children = append(root.Children, branch)
	}

	return root
}

func assignNodeIDs(node *model.MindMapNode, depth int) {
	node.ID = uuid.NewString()
	for i := range node.Children {
		assignNodeIDs(&node.Children[i], depth+1)
	}
}

func countNodes(node *model.MindMapNode) int {
	count := 1
	for i := range node.Children {
		count += countNodes(&node.Children[i])
	}
	return count
}
