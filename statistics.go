package slabmalloc

import "math"

type Statistics struct {
	PageCount       int
	FullPageCount   int
	PageBytes       int
	FreeObjectCount int
}

func (s *Statistics) Clear() {
	s.PageCount = 0
	s.FullPageCount = 0
	s.PageBytes = 0
	s.FreeObjectCount = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.PageCount += other.PageCount
	s.FullPageCount += other.FullPageCount
	s.PageBytes += other.PageBytes
	s.FreeObjectCount += other.FreeObjectCount
}

// DetailedStatistics extends Statistics with per-page extremes. Call Clear before accumulating into a
// zero value, otherwise FreeObjectsMin stays at 0.
type DetailedStatistics struct {
	Statistics
	EmptyWordCount int
	FreeObjectsMin int
	FreeObjectsMax int
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.EmptyWordCount = 0
	s.FreeObjectsMin = math.MaxInt
	s.FreeObjectsMax = 0
}

// AddPage records a single page of pageSize bytes that has freeObjects free slots and
// emptyWords bitmap words with no allocated slots
func (s *DetailedStatistics) AddPage(pageSize, freeObjects, emptyWords int, full bool) {
	s.PageCount++
	s.PageBytes += pageSize
	s.FreeObjectCount += freeObjects
	s.EmptyWordCount += emptyWords
	if full {
		s.FullPageCount++
	}

	if freeObjects < s.FreeObjectsMin {
		s.FreeObjectsMin = freeObjects
	}

	if freeObjects > s.FreeObjectsMax {
		s.FreeObjectsMax = freeObjects
	}
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.EmptyWordCount += other.EmptyWordCount

	if other.FreeObjectsMin < s.FreeObjectsMin {
		s.FreeObjectsMin = other.FreeObjectsMin
	}

	if other.FreeObjectsMax > s.FreeObjectsMax {
		s.FreeObjectsMax = other.FreeObjectsMax
	}
}
