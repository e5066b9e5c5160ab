package viewport

import "github.com/mssola/useragent"

// HintFromUserAgent guesses the initial mode before the browser reports its
// width. Phones are Mobile; tablets and desktops start as Desktop since most
// tablets are at least MobileBreakpoint wide in landscape.
func HintFromUserAgent(ua string) Mode {
	if ua == "" {
		return ModeDesktop
	}
	parsed := useragent.New(ua)
	if parsed.Mobile() {
		return ModeMobile
	}
	return ModeDesktop
}
