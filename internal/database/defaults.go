package database

import "golang.org/x/crypto/bcrypt"

// defaultPassword is the shipped admin password. SetInitialPassword refuses
// to store it, and the UI nags until auth_password_changed flips.
const defaultPassword = "showgo"

// defaultSettings is the compiled-in settings catalog. Bootstrap seeds
// missing keys from it and GetSetting falls back to it, so every key the
// application reads must appear here.
var defaultSettings = map[string]interface{}{
	// Slideshow
	"slideshow_duration_seconds":    10,
	"slideshow_transition_effect":   "kenburns",
	"slideshow_image_order":         "random",
	"slideshow_image_scaling":       "cover",
	"slideshow_video_scaling":       "contain",
	"slideshow_video_autoplay":      true,
	"slideshow_video_loop":          false,
	"slideshow_video_muted":         true,
	"slideshow_video_show_controls": false,

	// Watermark
	"watermark_enabled":  false,
	"watermark_text":     "ShowGo Slideshow",
	"watermark_position": "top-right",

	// Overlay
	"overlay_enabled":          false,
	"overlay_text":             "ShowGo",
	"overlay_position":         "bottom-right",
	"overlay_font_size":        "medium",
	"overlay_font_color":       "#FFFFFF",
	"overlay_logo_enabled":     false,
	"overlay_display_mode":     "text_only",
	"overlay_background_color": "rgba(0,0,0,0.5)",
	"overlay_padding":          "10px",

	// Widgets
	"widgets_time_enabled":     true,
	"widgets_weather_enabled":  true,
	"widgets_weather_location": "Oshkosh",
	"widgets_rss_enabled":      false,
	"widgets_rss_feed_url":     "https://feeds.bbci.co.uk/news/rss.xml?edition=us",
	"widgets_rss_scroll_speed": "medium",

	// Auth
	"auth_username":         "admin",
	"auth_password_hash":    mustHashDefault(),
	"auth_password_changed": false,

	// Burn-in prevention
	"burn_in_prevention_enabled":          false,
	"burn_in_prevention_elements":         []string{"watermark"},
	"burn_in_prevention_interval_seconds": 15,
	"burn_in_prevention_strength_pixels":  3,
}

// deprecatedSettings lists keys Bootstrap removes. Keys land here when a
// feature is dropped or a secret should no longer live in the store.
var deprecatedSettings = []string{
	"widgets_weather_api_key",
}

// Defaults returns a copy of the compiled-in settings catalog.
func Defaults() map[string]interface{} {
	out := make(map[string]interface{}, len(defaultSettings))
	for k, v := range defaultSettings {
		out[k] = v
	}
	return out
}

func mustHashDefault() string {
	hash, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		// bcrypt only fails on an out-of-range cost; DefaultCost never is.
		panic(err)
	}
	return string(hash)
}
