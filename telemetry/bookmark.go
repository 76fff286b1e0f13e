package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkOutbreak      BookmarkType = "outbreak"
	BookmarkEradicated    BookmarkType = "eradicated"
	BookmarkCivilianCrash BookmarkType = "civilian_crash"
	BookmarkGridlock      BookmarkType = "gridlock"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable moments in a run from window stats.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentInfectedMin int  // minimum infected count since the last outbreak
	recentCivPeak     int  // peak civilian count since the last crash
	hadVirus          bool // previous window ended with virus on the map
	gridlocked        bool // gridlock already reported for the current streak
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		history:           make([]WindowStats, historySize),
		historySize:       historySize,
		recentInfectedMin: -1,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkOutbreak(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkEradicated(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkCivilianCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}
	if b := bd.checkGridlock(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)

	if bd.recentInfectedMin < 0 || stats.Infected < bd.recentInfectedMin {
		bd.recentInfectedMin = stats.Infected
	}
	if stats.Civilians > bd.recentCivPeak {
		bd.recentCivPeak = stats.Civilians
	}
	bd.hadVirus = stats.VirusTotal > 0

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

// checkOutbreak fires when the infected count at least doubles from its
// recent minimum and grew by 3 or more.
func (bd *BookmarkDetector) checkOutbreak(stats WindowStats) *Bookmark {
	if bd.recentInfectedMin < 0 {
		return nil
	}
	base := bd.recentInfectedMin
	if stats.Infected < 2*base || stats.Infected-base < 3 {
		return nil
	}
	bd.recentInfectedMin = stats.Infected
	return &Bookmark{
		Type:        BookmarkOutbreak,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Infected grew from %d to %d", base, stats.Infected),
	}
}

// checkEradicated fires on the first window that ends with no virus after
// one that had some.
func (bd *BookmarkDetector) checkEradicated(stats WindowStats) *Bookmark {
	if !bd.hadVirus || stats.VirusTotal > 0 {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkEradicated,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Virus eradicated with %d infected left", stats.Infected),
	}
}

// checkCivilianCrash fires when civilians drop more than 30% from their
// recent peak.
func (bd *BookmarkDetector) checkCivilianCrash(stats WindowStats) *Bookmark {
	if bd.recentCivPeak == 0 {
		return nil
	}
	drop := 1.0 - float64(stats.Civilians)/float64(bd.recentCivPeak)
	if drop <= 0.30 || bd.recentCivPeak-stats.Civilians < 3 {
		return nil
	}
	oldPeak := bd.recentCivPeak
	bd.recentCivPeak = stats.Civilians
	return &Bookmark{
		Type:        BookmarkCivilianCrash,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Civilians fell %.0f%% from %d to %d", drop*100, oldPeak, stats.Civilians),
	}
}

// checkGridlock fires once per streak of windows in which orders were
// pending but none moved a unit.
func (bd *BookmarkDetector) checkGridlock(stats WindowStats) *Bookmark {
	stuck := stats.Orders > 0 && stats.Hops == 0 && stats.BlockedTicks > 0
	if !stuck {
		bd.gridlocked = false
		return nil
	}
	if bd.gridlocked {
		return nil
	}

	history := bd.getHistory()
	if len(history) == 0 {
		return nil
	}
	prev := history[(bd.historyIdx-1+len(history))%len(history)]
	if prev.Orders == 0 || prev.Hops > 0 {
		return nil
	}
	bd.gridlocked = true
	return &Bookmark{
		Type:        BookmarkGridlock,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d orders made no progress for two windows", stats.Orders),
	}
}
