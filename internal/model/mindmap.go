package model

import "time"

// MindMapNode is one node in the mind map tree, at most three levels deep
type MindMapNode struct {
	ID       string        `json:"id"`
	Label    string        `json:"label"`
	Children []MindMapNode `json:"children,omitempty"`
}

// MindMap is the mind map generator's artifact
type MindMap struct {
	Root      MindMapNode `json:"root"`
	NodeCount int         `json:"node_count"`

	VideoID    string `json:"video_id"`
	VideoTitle string `json:"video_title,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
}
