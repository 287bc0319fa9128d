package database

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// settingValidators maps every settable key to its value check. A key
// missing here cannot be written through ValidateSetting, which keeps typos
// out of the store.
var settingValidators = map[string]func(value interface{}) error{
	"slideshow_duration_seconds":    positiveInt,
	"slideshow_transition_effect":   oneOf("fade", "slide", "kenburns"),
	"slideshow_image_order":         oneOf("random", "alphabetical"),
	"slideshow_image_scaling":       oneOf("cover", "contain"),
	"slideshow_video_scaling":       oneOf("cover", "contain"),
	"slideshow_video_autoplay":      boolValue,
	"slideshow_video_loop":          boolValue,
	"slideshow_video_muted":         boolValue,
	"slideshow_video_show_controls": boolValue,

	"watermark_enabled":  boolValue,
	"watermark_text":     anyString,
	"watermark_position": oneOf("top-left", "top-right", "bottom-left", "bottom-right"),

	"overlay_enabled":          boolValue,
	"overlay_text":             anyString,
	"overlay_position":         oneOf("top-left", "top-right", "bottom-left", "bottom-right"),
	"overlay_font_size":        oneOf("small", "medium", "large"),
	"overlay_font_color":       anyString,
	"overlay_logo_enabled":     boolValue,
	"overlay_display_mode":     oneOf("text_only", "logo_only", "logo_and_text_side", "logo_and_text_below"),
	"overlay_background_color": anyString,
	"overlay_padding":          anyString,

	"widgets_time_enabled":     boolValue,
	"widgets_weather_enabled":  boolValue,
	"widgets_weather_location": anyString,
	"widgets_rss_enabled":      boolValue,
	"widgets_rss_feed_url":     anyString,
	"widgets_rss_scroll_speed": oneOf("slow", "medium", "fast"),

	"auth_username":         anyString,
	"auth_password_hash":    anyString,
	"auth_password_changed": boolValue,

	"burn_in_prevention_enabled":          boolValue,
	"burn_in_prevention_elements":         stringList,
	"burn_in_prevention_interval_seconds": positiveInt,
	"burn_in_prevention_strength_pixels":  positiveInt,
}

// ValidateSetting checks a key/value pair before it is written. The store
// itself is policy-free; callers validate, then call SetSetting.
func ValidateSetting(key string, value interface{}) error {
	if key == mediaChangedKey {
		return fmt.Errorf("%w: %q is managed internally", ErrValidation, key)
	}
	validate, ok := settingValidators[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", ErrValidation, key)
	}
	if err := validate(value); err != nil {
		return fmt.Errorf("%w: setting %q: %v", ErrValidation, key, err)
	}
	return nil
}

func oneOf(allowed ...string) func(interface{}) error {
	return func(value interface{}) error {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return fmt.Errorf("%q is not one of: %s", s, strings.Join(allowed, ", "))
	}
}

func boolValue(value interface{}) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

func anyString(value interface{}) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// positiveInt accepts int, int64, and whole float64 values. JSON decoding
// hands numbers back as float64, so settings read from the store arrive in
// that shape.
func positiveInt(value interface{}) error {
	n, ok := asInt(value)
	if !ok {
		return fmt.Errorf("expected integer, got %T", value)
	}
	if n <= 0 {
		return fmt.Errorf("must be positive, got %d", n)
	}
	return nil
}

func asInt(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}

func stringList(value interface{}) error {
	switch v := value.(type) {
	case []string:
		for _, s := range v {
			if s == "" {
				return errors.New("list entries must be non-empty strings")
			}
		}
		return nil
	case []interface{}:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("list entries must be strings, got %T", item)
			}
			if s == "" {
				return errors.New("list entries must be non-empty strings")
			}
		}
		return nil
	default:
		return fmt.Errorf("expected list of strings, got %T", value)
	}
}
