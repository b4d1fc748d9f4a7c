// Package pingdata aggregates round trip statistics of a ping run.
package pingdata

import (
	"fmt"
	"math"
	"sync"
	"time"
)

type outcomeKind int

const (
	kindReplied = outcomeKind(iota)
	kindTimedOut
	kindFailed
)

// Outcome of a single resolved probe
type Outcome struct {
	kind outcomeKind
	rtt  time.Duration
}

func Replied(rtt time.Duration) Outcome {
	return Outcome{kind: kindReplied, rtt: rtt}
}

func TimedOut() Outcome {
	return Outcome{kind: kindTimedOut}
}

func Failed() Outcome {
	return Outcome{kind: kindFailed}
}

// PingStats accumulates probe outcomes.
// Safe for concurrent use: the scheduler records, exporters read.
type PingStats struct {
	mutex   sync.RWMutex
	tx      uint64
	rx      uint64
	failed  uint64
	dup     uint64
	ignored uint64
	rtt     time.Duration
	minRtt  time.Duration
	maxRtt  time.Duration
	sumRtt  time.Duration
	// float64 keeps sum of squared nanoseconds from overflowing
	sumSq float64
}

// Summary is a snapshot of statistics
type Summary struct {
	Transmitted uint64
	Received    uint64
	Failed      uint64
	Duplicates  uint64
	Ignored     uint64
	// Loss in percent
	Loss float64
	Min  time.Duration
	Avg  time.Duration
	Max  time.Duration
	Mdev time.Duration
}

// Reset statistics to zero values
func (s *PingStats) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.tx = 0
	s.rx = 0
	s.failed = 0
	s.dup = 0
	s.ignored = 0
	s.rtt = 0
	s.minRtt = 0
	s.maxRtt = 0
	s.sumRtt = 0
	s.sumSq = 0
}

// Record folds a resolved probe into statistics.
// Every outcome counts as transmitted.
func (s *PingStats) Record(o Outcome) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.tx++
	switch o.kind {
	case kindReplied:
		s.rx++
		s.rtt = o.rtt
		if s.rx == 1 || o.rtt < s.minRtt {
			s.minRtt = o.rtt
		}
		if o.rtt > s.maxRtt {
			s.maxRtt = o.rtt
		}
		s.sumRtt += o.rtt
		s.sumSq += float64(o.rtt) * float64(o.rtt)
	case kindFailed:
		s.failed++
	}
}

// RecordDuplicate counts a reply for an already resolved probe
func (s *PingStats) RecordDuplicate() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.dup++
}

// RecordIgnored counts a received packet not belonging to any probe
func (s *PingStats) RecordIgnored() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.ignored++
}

func (s *PingStats) Valid() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.tx > 0 && s.tx >= s.rx
}

// Rtt returns last received packet rtt
func (s *PingStats) Rtt() time.Duration {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.rtt
}

func (s *PingStats) Summary() Summary {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	ret := Summary{
		Transmitted: s.tx,
		Received:    s.rx,
		Failed:      s.failed,
		Duplicates:  s.dup,
		Ignored:     s.ignored,
	}

	if s.tx == 0 {
		return ret
	}
	ret.Loss = float64(s.tx-s.rx) * 100 / float64(s.tx)

	if s.rx == 0 {
		return ret
	}
	mean := float64(s.sumRtt) / float64(s.rx)
	variance := s.sumSq/float64(s.rx) - mean*mean

	ret.Min = s.minRtt
	ret.Max = s.maxRtt
	ret.Avg = time.Duration(mean)
	ret.Mdev = time.Duration(math.Sqrt(math.Max(variance, 0)))

	return ret
}

func (s *PingStats) String() string {
	sum := s.Summary()
	return fmt.Sprintf("tx=%d, rx=%d, loss=%.1f%%, min=%s, avg=%s, max=%s, mdev=%s",
		sum.Transmitted, sum.Received, sum.Loss, sum.Min, sum.Avg, sum.Max, sum.Mdev)
}
