package render

import (
	"fmt"

	"github.com/gekko3d/lumen/core"
)

// RenderPipeline is an ordered composition of subpasses sharing one render
// target. It drives the subpass lifecycle: Prepare once, then per frame the
// attachment update hook followed by the draw hook of each subpass.
type RenderPipeline struct {
	name      string
	subpasses []Subpass
	log       core.Logger
	prepared  bool
}

func NewRenderPipeline(name string, log core.Logger) *RenderPipeline {
	if log == nil {
		log = core.NewNopLogger()
	}
	return &RenderPipeline{name: name, log: log}
}

func (p *RenderPipeline) Name() string { return p.name }

func (p *RenderPipeline) AddSubpass(s Subpass) {
	p.subpasses = append(p.subpasses, s)
}

func (p *RenderPipeline) Subpasses() []Subpass { return p.subpasses }

// Prepare runs every subpass's one-time setup. Must complete before the
// first Draw.
func (p *RenderPipeline) Prepare() error {
	for i, s := range p.subpasses {
		if err := s.Prepare(); err != nil {
			return fmt.Errorf("pipeline %s: subpass %d: %w", p.name, i, err)
		}
		p.log.Debugf("pipeline %s: subpass %s prepared", p.name, s.state().ID())
	}
	p.prepared = true
	return nil
}

// Draw records one frame: for each subpass in order, push its output
// attachments into the target, then run its draw hook.
func (p *RenderPipeline) Draw(rec CommandRecorder, target *RenderTarget) {
	if !p.prepared {
		panic(fmt.Sprintf("lumen/render: pipeline %s drawn before Prepare", p.name))
	}
	for _, s := range p.subpasses {
		s.state().UpdateRenderTargetAttachments(target)
		s.Draw(rec)
	}
}
