package model

import (
	"github.com/ruimo/klavier-core-sub000/chunk"
)

type RenderRequestBody struct {
	Score    Score `json:"score"`
	Optimize bool  `json:"optimize"`
	Store    bool  `json:"store"`
}

type RenderResponse struct {
	ID       string        `json:"id,omitempty"`
	Chunks   []chunk.Chunk `json:"chunks"`
	Warnings []string      `json:"warnings"`
}

// LocateRequestBody asks for the rendered position of Tick during pass Iter,
// or for the score position at Accum when it is set.
type LocateRequestBody struct {
	Score Score   `json:"score"`
	Tick  uint32  `json:"tick"`
	Iter  uint8   `json:"iter"`
	Accum *uint32 `json:"accum,omitempty"`
}

type LocateResponse struct {
	Tick      uint32 `json:"tick"`
	Iter      uint8  `json:"iter"`
	AccumTick uint32 `json:"accum_tick"`
}

type ErrorResponse struct {
	Error   string `json:"detail"`
	MaxIter *uint8 `json:"max_iter,omitempty"`
}
