package browser

import (
	"fmt"
	"math/rand"
)

// Viewport is a whitelisted screen size a context may present.
type Viewport struct {
	Width, Height int
}

var viewportWhitelist = []Viewport{
	{1920, 1080}, {1536, 864}, {1366, 768}, {1440, 900}, {2560, 1440},
}

var userAgentPool = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
}

// Profile is the per-context fingerprint, minted once at context creation
// and held for the context's lifetime so repeated requests look like the
// same returning visitor rather than a new browser each time.
type Profile struct {
	UserAgent           string
	Viewport            Viewport
	Locale              string
	Timezone            string
	Platform            string
	HardwareConcurrency int
	DeviceMemory        int
}

// RandomProfile mints a profile per spec §4.D: randomized UA from a small
// pool of recent desktop strings, randomized viewport from a whitelist,
// fixed en-GB/Europe-London locale.
func RandomProfile() Profile {
	vp := viewportWhitelist[rand.Intn(len(viewportWhitelist))]
	ua := userAgentPool[rand.Intn(len(userAgentPool))]
	platform := "Win32"
	switch {
	case containsAny(ua, "Macintosh"):
		platform = "MacIntel"
	case containsAny(ua, "Linux"):
		platform = "Linux x86_64"
	}
	return Profile{
		UserAgent:           ua,
		Viewport:            vp,
		Locale:              "en-GB",
		Timezone:            "Europe/London",
		Platform:            platform,
		HardwareConcurrency: 4 + rand.Intn(9),
		DeviceMemory:        8,
	}
}

func containsAny(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

// StealthJS returns the page-level patch script applied before any other
// script runs. It extends the teacher's webdriver/plugins/chrome patches
// with canvas, WebGL and audio fingerprint noise, which spec §4.D calls
// for and the teacher's stealth config does not implement.
func (p Profile) StealthJS() string {
	return fmt.Sprintf(`
Object.defineProperty(navigator, 'platform', { get: () => %q });
Object.defineProperty(navigator, 'language', { get: () => %q });
Object.defineProperty(navigator, 'languages', { get: () => [%q, 'en'] });
Object.defineProperty(navigator, 'hardwareConcurrency', { get: () => %d });
Object.defineProperty(navigator, 'deviceMemory', { get: () => %d });
Object.defineProperty(navigator, 'webdriver', { get: () => false });

window.chrome = {
	runtime: { onMessage: { addListener: () => {} }, sendMessage: () => {} },
	loadTimes: () => ({}),
	csi: () => ({}),
};

Object.defineProperty(navigator, 'plugins', {
	get: () => {
		const plugins = [
			{ name: 'Chrome PDF Plugin', filename: 'internal-pdf-viewer' },
			{ name: 'Chrome PDF Viewer', filename: 'mhjfbmdgcfjbbpaeojofohoefgiehjai' },
			{ name: 'Native Client', filename: 'internal-nacl-plugin' },
		];
		plugins.length = 3;
		return plugins;
	}
});

// Canvas fingerprint noise: perturb a handful of pixels per readback.
const origGetImageData = CanvasRenderingContext2D.prototype.getImageData;
CanvasRenderingContext2D.prototype.getImageData = function(...args) {
	const data = origGetImageData.apply(this, args);
	for (let i = 0; i < data.data.length; i += 97) {
		data.data[i] = data.data[i] ^ 1;
	}
	return data;
};

// WebGL fingerprint noise: report a generic renderer string.
const origGetParameter = WebGLRenderingContext.prototype.getParameter;
WebGLRenderingContext.prototype.getParameter = function(param) {
	if (param === 37445) return 'Intel Inc.';
	if (param === 37446) return 'Intel Iris OpenGL Engine';
	return origGetParameter.call(this, param);
};

// Audio fingerprint noise: nudge channel data slightly.
const origGetChannelData = AudioBuffer.prototype.getChannelData;
AudioBuffer.prototype.getChannelData = function(...args) {
	const data = origGetChannelData.apply(this, args);
	for (let i = 0; i < data.length; i += 100) {
		data[i] = data[i] + (Math.random() * 1e-7);
	}
	return data;
};
`, p.Platform, p.Locale, p.Locale, p.HardwareConcurrency, p.DeviceMemory)
}
