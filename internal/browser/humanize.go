package browser

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// humanize performs a short pseudo-human scroll sequence, grounded on the
// teacher's internal/automation ScrollBy/InfiniteScroll helpers, and
// dismisses an EU cookie-consent banner if one of the common selectors is
// present. It is best-effort: any error here degrades the fingerprint but
// must never fail the scrape.
func humanize(page *rod.Page) {
	dismissCookieBanner(page)

	steps := 2 + rand.Intn(3)
	for i := 0; i < steps; i++ {
		dy := 200 + rand.Intn(400)
		_, _ = page.Eval(fmt.Sprintf(`window.scrollBy(0, %d)`, dy))
		time.Sleep(time.Duration(150+rand.Intn(250)) * time.Millisecond)
	}
}

var cookieConsentSelectors = []string{
	`#onetrust-accept-btn-handler`,
	`button[aria-label="Accept all cookies"]`,
	`button#accept-cookies`,
	`.cookie-consent-accept`,
}

func dismissCookieBanner(page *rod.Page) {
	for _, sel := range cookieConsentSelectors {
		el, err := page.Timeout(500 * time.Millisecond).Element(sel)
		if err != nil || el == nil {
			continue
		}
		_ = el.Click(proto.InputMouseButtonLeft, 1)
		return
	}
}
