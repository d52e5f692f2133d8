package sheet

import "sync"

// Pointer is the cell the next transcript is written to. It is shared by
// the UI and the recording worker.
type Pointer struct {
	mu       sync.Mutex
	addr     Address
	onChange func(Address)
}

func NewPointer(start Address) *Pointer {
	if start.IsZero() {
		start = Address{Column: "A", Row: 1}
	}
	return &Pointer{addr: start}
}

// OnChange registers fn to be called after every change. fn runs on the
// goroutine that made the change, outside the lock.
func (p *Pointer) OnChange(fn func(Address)) {
	p.mu.Lock()
	p.onChange = fn
	p.mu.Unlock()
}

func (p *Pointer) Get() Address {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addr
}

// Set parses text and moves the pointer. On error the pointer is unchanged.
func (p *Pointer) Set(text string) (Address, error) {
	a, err := ParseAddress(text)
	if err != nil {
		return p.Get(), err
	}
	p.update(func(Address) Address { return a })
	return a, nil
}

// Advance moves one row down and returns the new address.
func (p *Pointer) Advance() Address {
	return p.update(Address.Next)
}

func (p *Pointer) update(fn func(Address) Address) Address {
	p.mu.Lock()
	p.addr = fn(p.addr)
	a, cb := p.addr, p.onChange
	p.mu.Unlock()
	if cb != nil {
		cb(a)
	}
	return a
}
