package browser

// Pending tracks one fetch issued by the browser
type Pending struct {
	done   chan struct{}
	loaded bool
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func finished(loaded bool) *Pending {
	p := newPending()
	p.finish(loaded)
	return p
}

func (p *Pending) finish(loaded bool) {
	p.loaded = loaded
	close(p.done)
}

// Done is closed once the fetch has been applied or dropped
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the fetch settles and reports whether its result was
// rendered. Superseded and failed fetches report false.
func (p *Pending) Wait() bool {
	<-p.done
	return p.loaded
}
