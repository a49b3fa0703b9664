package checkout

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/speps/go-hashids/v2"
)

// trackingAlphabet leaves out I and O, they are too easy to confuse with 1 and 0
// when read out over the phone.
const trackingAlphabet = "0123456789ABCDEFGHJKLMNPQRSTUVWXYZ"

// TrackingGenerator produces short public order numbers from the creation
// time and a process-local counter.
type TrackingGenerator struct {
	h       *hashids.HashID
	counter atomic.Int64
	now     func() time.Time
}

func NewTrackingGenerator(salt string, minLength int) (*TrackingGenerator, error) {
	hd := hashids.NewData()
	hd.Alphabet = trackingAlphabet
	hd.Salt = salt
	hd.MinLength = minLength

	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("failed to init tracking numbers: %w", err)
	}
	return &TrackingGenerator{h: h, now: time.Now}, nil
}

func (g *TrackingGenerator) Next() (string, error) {
	ms := g.now().UnixNano() / int64(time.Millisecond)
	n := g.counter.Add(1)
	return g.h.EncodeInt64([]int64{ms, n})
}
