package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	seRe           = regexp.MustCompile(`\bse\b`)
	ultraWordRe    = regexp.MustCompile(`\bultra\b`)
	galaxySectRe   = regexp.MustCompile(`galaxy\s*watch[^a-z]*(?:[\d\s/,c]+(?:classic)?)+`)
	galaxyNumsRe   = regexp.MustCompile(`galaxy\s*watch\s*([\d\s/,]+)`)
	seriesNumsRe   = regexp.MustCompile(`series\s*([\d\s,/]+)`)
	appleDeviceRe  = regexp.MustCompile(`apple|iwatch`)
	samsungRe      = regexp.MustCompile(`samsung|galaxy\s*watch`)
	pixelDeviceRe  = regexp.MustCompile(`pixel\s*watch|google`)
	brandFallbacks = []struct{ brand, text string }{
		{"garmin", "All Garmin Watches"},
		{"fitbit", "All Fitbit Devices"},
		{"google", "Google Pixel Watch 1 & 2"},
		{"huawei", "All Huawei Watches"},
		{"amazfit", "All Amazfit Watches"},
	}
)

// Compatibility is the device family a product fits and any specific
// models named in its title.
type Compatibility struct {
	Brand  string   `json:"brand"`
	Models []string `json:"models"`
}

// DeviceCompatibility reads the target device family from a title.
func DeviceCompatibility(title string) Compatibility {
	text := strings.ToLower(title)

	switch {
	case appleDeviceRe.MatchString(text):
		models := []string{}
		if m := seriesNumsRe.FindStringSubmatch(text); m != nil {
			for _, n := range digitsRe.FindAllString(m[1], -1) {
				models = append(models, "Series "+n)
			}
		}
		if seRe.MatchString(text) {
			models = append(models, "SE")
		}
		if ultraWordRe.MatchString(text) {
			models = append(models, "Ultra")
		}
		return Compatibility{Brand: "apple", Models: models}

	case samsungRe.MatchString(text):
		var models []string
		if m := galaxyNumsRe.FindStringSubmatch(text); m != nil {
			for _, n := range digitsRe.FindAllString(m[1], -1) {
				models = append(models, n)
				if hasClassic(text, n) {
					models = append(models, n+" Classic")
				}
			}
		}
		if ultraWordRe.MatchString(text) {
			models = append(models, "Ultra")
		}
		return Compatibility{Brand: "samsung", Models: dedupe(models)}

	case strings.Contains(text, "garmin"):
		return Compatibility{Brand: "garmin", Models: []string{}}
	case strings.Contains(text, "fitbit"):
		return Compatibility{Brand: "fitbit", Models: []string{}}
	case pixelDeviceRe.MatchString(text):
		return Compatibility{Brand: "google", Models: []string{}}
	}
	return Compatibility{Brand: "universal", Models: []string{}}
}

// CompatibilityText is the human-readable "fits" line for a product.
func CompatibilityText(title, description string) string {
	a := Analyze(title, description)
	text := normalize(title + " " + description)

	sizeText := ""
	if len(a.WatchSizes) > 0 {
		sizeText = " (" + strings.Join(a.WatchSizes, "/") + ")"
	}

	if contains(a.Brands, "apple") {
		model := appleSeriesText(a.SeriesNumbers)
		if seRe.MatchString(text) {
			model = joinModel(model, "SE")
		}
		if ultraWordRe.MatchString(text) {
			model = joinModel(model, "Ultra")
		}
		if model == "" {
			return "All Apple Watches" + sizeText
		}
		return "Apple Watch " + model + sizeText
	}

	if contains(a.Brands, "samsung") {
		models := galaxyModels(text)
		hasUltra := strings.Contains(text, "ultra")
		if len(models) == 0 && !hasUltra {
			return "All Samsung Galaxy Watches" + sizeText
		}
		result := "Samsung Galaxy Watch"
		if len(models) > 0 {
			result += " " + strings.Join(models, "/")
		}
		if hasUltra {
			result += " Ultra"
		}
		return result + sizeText
	}

	for _, fb := range brandFallbacks {
		if contains(a.Brands, fb.brand) {
			return fb.text
		}
	}

	if len(a.Brands) > 1 {
		names := make([]string, len(a.Brands))
		for i, b := range a.Brands {
			names[i] = strings.ToUpper(b[:1]) + b[1:]
		}
		return fmt.Sprintf("Compatible with %s Watches", strings.Join(names, ", "))
	}
	if len(a.WatchSizes) > 0 {
		return fmt.Sprintf("Universal %s Watch Bands", strings.Join(a.WatchSizes, "/"))
	}
	return "Multiple Smartwatch Brands"
}

// appleSeriesText renders "Series 4-9" for runs of three or more
// consecutive numbers, else "Series 7/9".
func appleSeriesText(series []string) string {
	if len(series) == 0 {
		return ""
	}
	nums := make([]int, 0, len(series))
	for _, s := range series {
		if n, err := strconv.Atoi(s); err == nil {
			nums = append(nums, n)
		}
	}
	if len(nums) == 0 {
		return ""
	}
	sort.Ints(nums)
	lo, hi := nums[0], nums[len(nums)-1]
	if len(nums) >= 3 && len(nums) == hi-lo+1 {
		return fmt.Sprintf("Series %d-%d", lo, hi)
	}
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return "Series " + strings.Join(parts, "/")
}

func joinModel(model, extra string) string {
	if model == "" {
		return extra
	}
	return model + ", " + extra
}

// galaxyModels lists Galaxy Watch generations newest first, with a "c"
// suffix for Classic variants ("7/6c/6").
func galaxyModels(text string) []string {
	sections := galaxySectRe.FindAllString(text, -1)
	if len(sections) == 0 {
		return nil
	}
	type model struct {
		num     int
		classic bool
	}
	var models []model
	seen := map[int]bool{}
	for _, d := range digitsRe.FindAllString(strings.Join(sections, " "), -1) {
		n, err := strconv.Atoi(d)
		if err != nil || n < 1 || n > 10 || seen[n] {
			continue
		}
		seen[n] = true
		models = append(models, model{num: n, classic: hasClassic(text, d)})
	}
	sort.SliceStable(models, func(i, j int) bool {
		if models[i].num != models[j].num {
			return models[i].num > models[j].num
		}
		return !models[i].classic && models[j].classic
	})
	out := make([]string, len(models))
	for i, m := range models {
		out[i] = strconv.Itoa(m.num)
		if m.classic {
			out[i] += "c"
		}
	}
	return out
}

func hasClassic(text, n string) bool {
	q := regexp.QuoteMeta(n)
	return regexp.MustCompile(`\b` + q + `\s*c\b|\b` + q + `\s+classic\b`).MatchString(text)
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
