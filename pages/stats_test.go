package pages_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/slabmalloc"
	"github.com/vkngwrapper/slabmalloc/pages"
	"golang.org/x/exp/slog"
)

func TestPageListStatistics(t *testing.T) {
	list, objectPages := newTestList(t, 2)

	layout := slabmalloc.Layout{Size: 64, Align: 64}
	for i := 0; i < 3; i++ {
		require.NotNil(t, objectPages[0].Allocate(layout))
	}

	list.InsertFront(objectPages[0])
	list.InsertFront(objectPages[1])

	var stats slabmalloc.Statistics
	list.AddStatistics(&stats)
	require.Equal(t, slabmalloc.Statistics{
		PageCount:       2,
		FullPageCount:   0,
		PageBytes:       2 * pages.ObjectPageSize,
		FreeObjectCount: 62 + 59,
	}, stats)

	var detailed slabmalloc.DetailedStatistics
	detailed.Clear()
	list.AddDetailedStatistics(&detailed)
	require.Equal(t, stats, detailed.Statistics)
	require.Zero(t, detailed.EmptyWordCount)
	require.Equal(t, 59, detailed.FreeObjectsMin)
	require.Equal(t, 62, detailed.FreeObjectsMax)
}

func TestPageDetailedStatisticsCountsEmptyWords(t *testing.T) {
	list, objectPages := newTestList(t, 1)
	page := objectPages[0]

	// 256 free slots fill four words exactly
	page.Bitmap().Initialize(15, 256*15)
	list.InsertFront(page)

	var detailed slabmalloc.DetailedStatistics
	detailed.Clear()
	list.AddDetailedStatistics(&detailed)
	require.Equal(t, 4, detailed.EmptyWordCount)
	require.Equal(t, 256, detailed.FreeObjectCount)

	page.Bitmap().Initialize(15, 0)
	detailed.Clear()
	list.AddDetailedStatistics(&detailed)
	require.Zero(t, detailed.EmptyWordCount)
	require.Equal(t, 1, detailed.FullPageCount)
	require.Zero(t, detailed.FreeObjectsMin)
}

func TestPageListBuildStatsString(t *testing.T) {
	list, objectPages := newTestList(t, 2)
	objectPages[1].Bitmap().Initialize(64, 0)

	list.InsertFront(objectPages[0])
	list.InsertFront(objectPages[1])

	writer := jwriter.NewWriter()
	list.BuildStatsString(&writer)
	require.NoError(t, writer.Error())

	expected := fmt.Sprintf(`{
		"Elements": 2,
		"Pages": [
			{"Link": "page#1", "Address": "%#x", "PageSize": 4096, "FreeObjects": 0, "Full": true},
			{"Link": "page#0", "Address": "%#x", "PageSize": 4096, "FreeObjects": 62, "Full": false}
		]
	}`, objectPages[1].BaseAddress(), objectPages[0].BaseAddress())
	require.JSONEq(t, expected, string(writer.Bytes()))
}

func TestPageListLogAllPages(t *testing.T) {
	list, objectPages := newTestList(t, 3)
	for _, page := range objectPages {
		list.InsertFront(page)
	}

	var buffer bytes.Buffer
	logger := slog.New(slog.HandlerOptions{Level: slog.LevelDebug}.NewTextHandler(&buffer))
	list.LogAllPages(logger)

	output := buffer.String()
	require.Equal(t, 3, strings.Count(output, "page list entry"))
	for _, page := range objectPages {
		require.Contains(t, output, fmt.Sprintf("address=%#x", page.BaseAddress()))
	}
}
