package system

import (
	"runtime"
	"sync"

	"github.com/oriumgames/ecscore/entityrange"
)

// parallelWorkers is the size of the ad-hoc worker pool a ranged/sorted
// system's parallel-for dispatches across — the host's logical CPU
// count.
func parallelWorkers() int {
	return max(runtime.GOMAXPROCS(0), 1)
}

// dispatchRange invokes fn once per entity in set. Unless sequential is
// true (the not_parallel option), it splits set into disjoint entity-id
// chunks and runs one chunk per worker goroutine concurrently. Each
// chunk owns a disjoint span of entity ids, so concurrent writes into
// the backing component pools never touch the same slot.
func dispatchRange(set entityrange.View, sequential bool, fn func(entityrange.ID)) {
	if sequential {
		iterateRange(set, fn)
		return
	}
	chunks := splitIntoChunks(set, parallelWorkers())
	if len(chunks) <= 1 {
		iterateRange(set, fn)
		return
	}
	var wg sync.WaitGroup
	wg.Add(len(chunks))
	for _, chunk := range chunks {
		go func(chunk entityrange.View) {
			defer wg.Done()
			iterateRange(chunk, fn)
		}(chunk)
	}
	wg.Wait()
}

// dispatchIDs is dispatchRange's counterpart for a sorted system's flat,
// already-ordered id slice: it preserves sort order within each chunk
// but, like dispatchRange, makes no promise about relative order across
// chunks when run unsequentially.
func dispatchIDs(ids []entityrange.ID, sequential bool, fn func(entityrange.ID)) {
	if sequential || len(ids) == 0 {
		for _, id := range ids {
			fn(id)
		}
		return
	}
	n := parallelWorkers()
	if n > len(ids) {
		n = len(ids)
	}
	if n <= 1 {
		for _, id := range ids {
			fn(id)
		}
		return
	}
	chunkSize := (len(ids) + n - 1) / n
	var wg sync.WaitGroup
	for start := 0; start < len(ids); start += chunkSize {
		end := min(start+chunkSize, len(ids))
		wg.Add(1)
		go func(chunk []entityrange.ID) {
			defer wg.Done()
			for _, id := range chunk {
				fn(id)
			}
		}(ids[start:end])
	}
	wg.Wait()
}

// splitIntoChunks divides set into up to n contiguous, roughly
// equal-sized sub-views, splitting a single underlying Range across
// chunk boundaries where needed so a chunk's size doesn't depend on how
// the entity set happened to be range-merged.
func splitIntoChunks(set entityrange.View, n int) []entityrange.View {
	if n <= 1 || len(set) == 0 {
		return []entityrange.View{set}
	}
	var total int64
	for _, r := range set {
		total += r.Count()
	}
	if total == 0 {
		return nil
	}
	if int64(n) > total {
		n = int(total)
	}
	chunkSize := (total + int64(n) - 1) / int64(n)

	var chunks []entityrange.View
	var cur entityrange.View
	var curCount int64
	for _, r := range set {
		first := int64(r.First)
		last := int64(r.Last)
		for first <= last {
			remaining := last - first + 1
			take := remaining
			if need := chunkSize - curCount; need < take {
				take = need
			}
			lastTaken := first + take - 1
			cur = append(cur, entityrange.Range{First: entityrange.ID(first), Last: entityrange.ID(lastTaken)})
			curCount += take
			first = lastTaken + 1
			if curCount >= chunkSize {
				chunks = append(chunks, cur)
				cur = nil
				curCount = 0
			}
		}
	}
	if len(cur) > 0 {
		chunks = append(chunks, cur)
	}
	return chunks
}
