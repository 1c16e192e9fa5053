package scraper

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
)

// scrollPause lets lazy-loaded content arrive between scrolls.
const scrollPause = 500 * time.Millisecond

// scrollPage scrolls to the bottom of the page the given number of times.
// Each script evaluation runs under its own scriptTimeout.
func scrollPage(p *rod.Page, scrolls int, scriptTimeout time.Duration) error {
	for i := 0; i < scrolls; i++ {
		sp := p.Timeout(scriptTimeout)
		_, err := sp.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
		sp.CancelTimeout()
		if err != nil {
			return fmt.Errorf("scroll step %d failed: %w", i, err)
		}

		select {
		case <-time.After(scrollPause):
		case <-p.GetContext().Done():
			return p.GetContext().Err()
		}
	}
	return nil
}
