package search

import "github.com/poiesic/slidevault/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterKeywordSearch(hits []core.Hit)
	AfterVectorSearch(hits []core.Hit)
	AfterFusion(hits []core.Hit)
	AfterRecordRetrieval(records []*core.SlideRecord)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                             {}
func (n *noopMonitor) AfterKeywordSearch(_ []core.Hit)            {}
func (n *noopMonitor) AfterVectorSearch(_ []core.Hit)             {}
func (n *noopMonitor) AfterFusion(_ []core.Hit)                   {}
func (n *noopMonitor) AfterRecordRetrieval(_ []*core.SlideRecord) {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)              {}
