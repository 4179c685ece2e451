package main

import (
	"errors"
	"fmt"
	"sort"
)

const (
	DefaultReduction = 8
	channelLevels    = 256
)

var ErrReduction = errors.New("reduction factor must be a positive divisor of 256")

// Quantizer сводит 8-битный RGB к индексу ячейки U×U×U, U = 256/F.
type Quantizer struct {
	factor int
	units  int
}

func NewQuantizer(reduction int) (Quantizer, error) {
	if reduction <= 0 || channelLevels%reduction != 0 {
		return Quantizer{}, fmt.Errorf("%w: %d", ErrReduction, reduction)
	}
	return Quantizer{factor: reduction, units: channelLevels / reduction}, nil
}

func (q Quantizer) Factor() int { return q.factor }

func (q Quantizer) Units() int { return q.units }

func (q Quantizer) Buckets() int { return q.units * q.units * q.units }

func (q Quantizer) Index(r, g, b uint8) int {
	u := q.units
	return int(r)/q.factor*u*u + int(g)/q.factor*u + int(b)/q.factor
}

// Color возвращает нижний угол ячейки, а не средний цвет пикселей.
func (q Quantizer) Color(index int) (r, g, b uint8) {
	u := q.units
	r = uint8(index / (u * u) * q.factor)
	g = uint8(index / u % u * q.factor)
	b = uint8(index % u * q.factor)
	return r, g, b
}

type Histogram struct {
	q      Quantizer
	counts []uint64
	pixels uint64
}

type Entry struct {
	Count   uint64
	Index   int
	R, G, B uint8
}

func NewHistogram(q Quantizer) *Histogram {
	return &Histogram{q: q, counts: make([]uint64, q.Buckets())}
}

func (h *Histogram) Add(r, g, b uint8) {
	h.counts[h.q.Index(r, g, b)]++
	h.pixels++
}

func (h *Histogram) Total() uint64 { return h.pixels }

func (h *Histogram) Count(index int) uint64 { return h.counts[index] }

func (h *Histogram) Quantizer() Quantizer { return h.q }

// Rank возвращает все U³ ячеек, включая пустые, по ключу (-Count, Index).
func (h *Histogram) Rank() []Entry {
	arr := make([]Entry, len(h.counts))
	for i, n := range h.counts {
		r, g, b := h.q.Color(i)
		arr[i] = Entry{Count: n, Index: i, R: r, G: g, B: b}
	}
	sort.Slice(arr, func(i, j int) bool {
		if arr[i].Count != arr[j].Count {
			return arr[i].Count > arr[j].Count
		}
		return arr[i].Index < arr[j].Index
	})
	return arr
}
