package scrape

// Observer receives pipeline events, typically to update metrics. Calls
// happen on the goroutine running the pipeline.
type Observer interface {
	PageFetched(endpoint string, items, kept int)
	FallbackUsed()
	TargetFailed(target string)
}

type nopObserver struct{}

func (nopObserver) PageFetched(string, int, int) {}
func (nopObserver) FallbackUsed()                {}
func (nopObserver) TargetFailed(string)          {}
