package model

import (
	"github.com/ruimo/klavier-core-sub000/chunk"
)

// Performance is one rendered score as it is stored.
type Performance struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Chunks   []chunk.Chunk `json:"chunks"`
	Warnings []string      `json:"warnings,omitempty"`
}

func (p Performance) Index() chunk.Index {
	return chunk.ByAccumTick(p.Chunks)
}

// PerformanceOverview is the listing entry of a stored performance. Total
// is the rendered length without the open-ended tail.
type PerformanceOverview struct {
	ID         string
	Name       string
	ChunkCount int
	Total      chunk.AccumTick
	OpenEnded  bool
	Warnings   int
	Filename   string
}

func (p Performance) Overview() PerformanceOverview {
	idx := p.Index()
	return PerformanceOverview{
		ID:         p.ID,
		Name:       p.Name,
		ChunkCount: len(p.Chunks),
		Total:      idx.Total(),
		OpenEnded:  idx.IsOpenEnded(),
		Warnings:   len(p.Warnings),
	}
}

type FileNum = uint32
type FileNumToScorePath = map[FileNum]string
