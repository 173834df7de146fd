package cluster

import (
	"context"
	"fmt"

	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/internal/dma"
	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/internal/partition"
	"github.com/zeeshanamjadfi/DMA-Controller-on-PULP/internal/transform"
)

// State identifies the stage a pipeline is in. After a failed run the
// pipeline stays in the stage that failed, which makes error reports point
// at the offending stage.
type State int

const (
	StateIdle State = iota
	StateIssuingIn
	StateWaitingIn
	StateTransforming
	StateIssuingOut
	StateWaitingOut
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateIssuingIn:
		return "issuing-in"
	case StateWaitingIn:
		return "waiting-in"
	case StateTransforming:
		return "transforming"
	case StateIssuingOut:
		return "issuing-out"
	case StateWaitingOut:
		return "waiting-out"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Pipeline drives one buffer through the staged transfer loop: per
// iteration it fans the iteration's chunks into the fast tier, applies the
// transform there, and fans the results back out. A pipeline is reusable
// but not concurrency-safe.
type Pipeline struct {
	eng    *dma.Engine
	layout partition.Layout
	state  State
	cmds   []*dma.Command
}

// NewPipeline binds an engine to a buffer layout.
func NewPipeline(eng *dma.Engine, layout partition.Layout) *Pipeline {
	return &Pipeline{
		eng:    eng,
		layout: layout,
		state:  StateIdle,
		cmds:   make([]*dma.Command, 0, layout.Copies),
	}
}

// State returns the stage the pipeline last reached.
func (p *Pipeline) State() State {
	return p.state
}

// Layout returns the buffer layout the pipeline was built for.
func (p *Pipeline) Layout() partition.Layout {
	return p.layout
}

// Run moves src through the fast tier into dst, transforming every byte
// exactly once. All three buffers must match the layout's buffer size; l1
// must not alias src or dst. On success dst holds the transformed image of
// src and the pipeline is in StateDone.
func (p *Pipeline) Run(ctx context.Context, src, dst, l1 []byte) error {
	size := p.layout.BufferSize
	if len(src) != size {
		return fmt.Errorf("cluster: source is %d bytes, layout needs %d", len(src), size)
	}
	if len(dst) != size {
		return fmt.Errorf("cluster: destination is %d bytes, layout needs %d", len(dst), size)
	}
	if len(l1) != size {
		return fmt.Errorf("cluster: fast-tier window is %d bytes, layout needs %d", len(l1), size)
	}

	for j := 0; j < p.layout.Iterations; j++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("iteration %d: %w", j, err)
		}

		p.state = StateIssuingIn
		p.cmds = p.cmds[:0]
		for i, ext := range p.layout.Chunks(j) {
			cmd, err := p.eng.Issue(dma.ExtToLoc, src[ext.Offset:ext.End()], l1[ext.Offset:ext.End()])
			if err != nil {
				return fmt.Errorf("issue %s chunk %d iteration %d: %w", dma.ExtToLoc, i, j, err)
			}
			p.cmds = append(p.cmds, cmd)
		}

		p.state = StateWaitingIn
		if err := p.waitAll(ctx, dma.ExtToLoc, j); err != nil {
			return err
		}

		p.state = StateTransforming
		it := p.layout.Iteration(j)
		transform.Apply(l1[it.Offset:it.End()])

		p.state = StateIssuingOut
		p.cmds = p.cmds[:0]
		for i, ext := range p.layout.Chunks(j) {
			cmd, err := p.eng.Issue(dma.LocToExt, dst[ext.Offset:ext.End()], l1[ext.Offset:ext.End()])
			if err != nil {
				return fmt.Errorf("issue %s chunk %d iteration %d: %w", dma.LocToExt, i, j, err)
			}
			p.cmds = append(p.cmds, cmd)
		}

		p.state = StateWaitingOut
		if err := p.waitAll(ctx, dma.LocToExt, j); err != nil {
			return err
		}
	}

	p.state = StateDone
	return nil
}

// waitAll consumes every outstanding handle even after a failure so no copy
// is left unobserved, then reports the first error.
func (p *Pipeline) waitAll(ctx context.Context, dir dma.Direction, iteration int) error {
	var firstErr error
	for i, cmd := range p.cmds {
		if err := cmd.Wait(ctx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("wait %s chunk %d iteration %d: %w", dir, i, iteration, err)
		}
	}
	return firstErr
}
