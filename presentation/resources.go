package presentation

import (
	"fmt"
)

// Resources are the objects built on top of one Chain: a view and a framebuffer per image, plus
// the render pass the framebuffers are bound to.
type Resources struct {
	Views        []ImageView
	RenderPass   RenderPass
	Framebuffers []Framebuffer
	Generation   uint64
}

// resourceBuilder creates Resources and caches the render pass keyed by color format.
type resourceBuilder struct {
	backend Backend
	reuse   bool

	pass       RenderPass
	passFormat ColorFormat
}

func (rb *resourceBuilder) build(chain *Chain) (*Resources, error) {
	res := &Resources{Generation: chain.Generation}

	res.Views = make([]ImageView, 0, len(chain.Images))
	for i, img := range chain.Images {
		view, err := rb.backend.CreateImageView(img, chain.Format.Format)
		if err != nil {
			rb.destroy(res)
			return nil, &ResourceCreationError{Op: fmt.Sprintf("create image view [%d]", i), Err: err}
		}
		res.Views = append(res.Views, view)
	}

	pass, err := rb.renderPass(chain.Format.Format)
	if err != nil {
		rb.destroy(res)
		return nil, &ResourceCreationError{Op: "create render pass", Err: err}
	}
	res.RenderPass = pass

	res.Framebuffers = make([]Framebuffer, 0, len(res.Views))
	for i, view := range res.Views {
		fb, err := rb.backend.CreateFramebuffer(pass, view, chain.Extent)
		if err != nil {
			rb.destroy(res)
			return nil, &ResourceCreationError{Op: fmt.Sprintf("create framebuffer [%d]", i), Err: err}
		}
		res.Framebuffers = append(res.Framebuffers, fb)
	}
	return res, nil
}

// renderPass returns the cached pass when it matches format, or replaces it.
func (rb *resourceBuilder) renderPass(format ColorFormat) (RenderPass, error) {
	if rb.pass != nil {
		if rb.reuse && rb.passFormat == format {
			return rb.pass, nil
		}
		rb.releasePass()
	}
	pass, err := rb.backend.CreateRenderPass(format)
	if err != nil {
		return nil, err
	}
	rb.pass = pass
	rb.passFormat = format
	return pass, nil
}

// destroy releases framebuffers, then the render pass unless it is kept for reuse, then the views.
func (rb *resourceBuilder) destroy(res *Resources) {
	for _, fb := range res.Framebuffers {
		rb.backend.DestroyFramebuffer(fb)
	}
	res.Framebuffers = nil
	if !rb.reuse {
		rb.releasePass()
	}
	res.RenderPass = nil
	for _, view := range res.Views {
		rb.backend.DestroyImageView(view)
	}
	res.Views = nil
}

func (rb *resourceBuilder) releasePass() {
	if rb.pass == nil {
		return
	}
	rb.backend.DestroyRenderPass(rb.pass)
	rb.pass = nil
	rb.passFormat = FormatUndefined
}
