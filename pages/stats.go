package pages

import (
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/slabmalloc"
	"golang.org/x/exp/slog"
)

// AddPageStatistics sums a single page's statistics into stats
func AddPageStatistics(page AllocablePage, stats *slabmalloc.Statistics) {
	stats.PageCount++
	stats.PageBytes += page.PageSize()
	stats.FreeObjectCount += page.FreeObjCount()
	if page.IsFull() {
		stats.FullPageCount++
	}
}

// AddPageDetailedStatistics sums a single page's statistics into stats
func AddPageDetailedStatistics(page AllocablePage, stats *slabmalloc.DetailedStatistics) {
	stats.AddPage(page.PageSize(), page.FreeObjCount(), page.Bitmap().EmptyWordCount(), page.IsFull())
}

// WritePageJSON populates a json object with information about a page
func WritePageJSON(json *jwriter.ObjectState, link Link, page AllocablePage) {
	json.Name("Link").String(link.String())
	json.Name("Address").String(fmt.Sprintf("%#x", page.BaseAddress()))
	json.Name("PageSize").Int(page.PageSize())
	json.Name("FreeObjects").Int(page.FreeObjCount())
	json.Name("Full").Bool(page.IsFull())
}

// AddStatistics sums the statistics of every page in the list into stats
func (l *PageList[P]) AddStatistics(stats *slabmalloc.Statistics) {
	for page := range l.All() {
		AddPageStatistics(page, stats)
	}
}

// AddDetailedStatistics sums the detailed statistics of every page in the list into stats
func (l *PageList[P]) AddDetailedStatistics(stats *slabmalloc.DetailedStatistics) {
	for page := range l.All() {
		AddPageDetailedStatistics(page, stats)
	}
}

// BuildStatsString writes a json object describing the list and each of its pages
func (l *PageList[P]) BuildStatsString(writer *jwriter.Writer) {
	obj := writer.Object()
	defer obj.End()

	obj.Name("Elements").Int(l.elements)

	pages := obj.Name("Pages").Array()
	for page := range l.All() {
		pageObj := pages.Object()
		WritePageJSON(&pageObj, l.arena.LinkOf(page), page)
		pageObj.End()
	}
	pages.End()
}

// LogAllPages writes a debug record for every page in the list
func (l *PageList[P]) LogAllPages(logger *slog.Logger) {
	for page := range l.All() {
		logger.Debug("page list entry",
			slog.String("link", l.arena.LinkOf(page).String()),
			slog.String("address", fmt.Sprintf("%#x", page.BaseAddress())),
			slog.Int("freeObjects", page.FreeObjCount()),
			slog.Bool("full", page.IsFull()),
		)
	}
}
