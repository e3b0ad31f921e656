package render

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Attachment describes one image slot of a render target. Index 0 is the
// swapchain-equivalent presentation attachment by convention.
type Attachment struct {
	Format wgpu.TextureFormat
	Usage  wgpu.TextureUsage
	View   *wgpu.TextureView
}

// RenderTarget is the shared attachment array a pipeline's subpasses draw
// into, plus the output list of whichever subpass is active.
type RenderTarget struct {
	Width  uint32
	Height uint32

	attachments []Attachment
	output      []uint32
}

func NewRenderTarget(width, height uint32, attachments []Attachment) *RenderTarget {
	return &RenderTarget{
		Width:       width,
		Height:      height,
		attachments: attachments,
		output:      []uint32{0},
	}
}

func (t *RenderTarget) Attachments() []Attachment { return t.attachments }

func (t *RenderTarget) Attachment(index uint32) *Attachment {
	if int(index) >= len(t.attachments) {
		panic(fmt.Sprintf("lumen/render: attachment index %d out of range (%d attachments)",
			index, len(t.attachments)))
	}
	return &t.attachments[index]
}

// SetOutputAttachments replaces the active output attachment list. Indices
// are taken as-is; validation is the owning pipeline's responsibility.
func (t *RenderTarget) SetOutputAttachments(output []uint32) {
	t.output = append(t.output[:0], output...)
}

func (t *RenderTarget) OutputAttachments() []uint32 { return t.output }
