package qr

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

var ErrPoolStopped = errors.New("render pool stopped")

type renderTask struct {
	text   string
	opts   Options
	result chan renderResult
}

type renderResult struct {
	png []byte
	err error
}

// Pool bounds the number of concurrent renders and collapses identical
// in-flight requests onto a single render.
type Pool struct {
	renderer Renderer
	size     int
	tasks    chan renderTask
	group    singleflight.Group
	log      *logrus.Entry

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	start  sync.Once
}

func NewPool(size int, renderer Renderer, log *logrus.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		renderer: renderer,
		size:     size,
		tasks:    make(chan renderTask),
		log:      log.WithField("component", "render_pool"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

var _ Renderer = (*Pool)(nil)

func (p *Pool) Start() {
	p.start.Do(func() {
		for i := 1; i <= p.size; i++ {
			p.wg.Add(1)
			go p.worker(i)
		}
		p.log.WithField("workers", p.size).Info("render pool started")
	})
}

func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()
}

// Render queues text for rendering and waits for the result or for ctx.
// Callers asking for the same text and options while a render is running
// share its result.
func (p *Pool) Render(ctx context.Context, text string, opts Options) ([]byte, error) {
	if err := p.ctx.Err(); err != nil {
		return nil, ErrPoolStopped
	}

	ch := p.group.DoChan(text+"|"+opts.key(), func() (any, error) {
		return p.submit(text, opts)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			p.log.Debug("shared in-flight render")
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, &RenderError{Err: ctx.Err()}
	}
}

func (p *Pool) submit(text string, opts Options) ([]byte, error) {
	task := renderTask{text: text, opts: opts, result: make(chan renderResult, 1)}

	select {
	case p.tasks <- task:
	case <-p.ctx.Done():
		return nil, ErrPoolStopped
	}

	select {
	case res := <-task.result:
		return res.png, res.err
	case <-p.ctx.Done():
		return nil, ErrPoolStopped
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case task := <-p.tasks:
			png, err := p.renderer.Render(p.ctx, task.text, task.opts)
			if err != nil {
				p.log.WithError(err).WithField("worker", id).Warn("render failed")
			}
			task.result <- renderResult{png: png, err: err}
		case <-p.ctx.Done():
			return
		}
	}
}
