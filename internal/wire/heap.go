package wire

import (
	"sync"

	"bridgegen/internal/errors"
)

// Handle is the address of a heap object. Zero is the null pointer.
type Handle uint64

// Heap errors.
var (
	ErrNullHandle = errors.New("null handle")
	ErrDoubleFree = errors.New("handle already freed")
	ErrDangling   = errors.New("unknown handle")
)

// Heap holds boxed objects. It is safe for concurrent use.
type Heap struct {
	mu    sync.Mutex
	next  Handle
	live  map[Handle]any
	freed map[Handle]struct{}
}

func NewHeap() *Heap {
	return &Heap{
		live:  make(map[Handle]any),
		freed: make(map[Handle]struct{}),
	}
}

// Box stores obj and returns its handle.
func (h *Heap) Box(obj any) Handle {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	h.live[h.next] = obj

	return h.next
}

// Borrow returns the object behind p without taking ownership.
func (h *Heap) Borrow(p Handle) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.lookup(p)
}

// Take returns the object behind p and frees the handle.
func (h *Heap) Take(p Handle) (any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	obj, err := h.lookup(p)
	if err != nil {
		return nil, err
	}

	delete(h.live, p)
	h.freed[p] = struct{}{}

	return obj, nil
}

// Free releases p.
func (h *Heap) Free(p Handle) error {
	_, err := h.Take(p)
	return err
}

// Live returns the number of objects not yet freed.
func (h *Heap) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.live)
}

func (h *Heap) lookup(p Handle) (any, error) {
	if p == 0 {
		return nil, ErrNullHandle
	}

	if obj, ok := h.live[p]; ok {
		return obj, nil
	}

	if _, ok := h.freed[p]; ok {
		return nil, errors.Wrapf(ErrDoubleFree, "handle %#x", uint64(p))
	}

	return nil, errors.Wrapf(ErrDangling, "handle %#x", uint64(p))
}
