package dynamo

import "runtime"

// Span is a half-open index range [Start, End).
type Span struct {
	Start, End int
}

func (s Span) Len() int { return s.End - s.Start }

// Workers returns the number of workers to use for n items: the available
// hardware concurrency, capped at n/2 so no worker is left without a pair,
// and never below one. A positive limit caps the result further.
func Workers(n, limit int) int {
	w := runtime.NumCPU()
	if limit > 0 && limit < w {
		w = limit
	}
	if n/2 < w {
		w = n / 2
	}
	if w < 1 {
		w = 1
	}
	return w
}

// Partition splits [0, n) into at most workers contiguous, non-empty spans.
func Partition(n, workers int) []Span {
	if n <= 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	chunkSize := (n + workers - 1) / workers
	spans := make([]Span, 0, workers)
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		spans = append(spans, Span{Start: start, End: end})
	}
	return spans
}
