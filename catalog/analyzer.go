// Package catalog derives display facts (materials, brands, sizes,
// compatibility) from free-text product titles and descriptions.
package catalog

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Analysis is the set of attributes inferred from a product's text.
type Analysis struct {
	Materials       []string `json:"materials"`
	Brands          []string `json:"brands"`
	Features        []string `json:"features"`
	IsWaterproof    bool     `json:"isWaterproof"`
	IsSportStyle    bool     `json:"isSportStyle"`
	IsLuxury        bool     `json:"isLuxury"`
	IsCasual        bool     `json:"isCasual"`
	HasQuickRelease bool     `json:"hasQuickRelease"`
	WatchSizes      []string `json:"watchSizes"`
	SeriesNumbers   []string `json:"seriesNumbers"`
	IsAccessory     bool     `json:"isAccessory"`
	AccessoryType   string   `json:"accessoryType,omitempty"`
}

type pattern struct {
	name string
	re   *regexp.Regexp
}

func patterns(pairs ...string) []pattern {
	out := make([]pattern, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, pattern{name: pairs[i], re: regexp.MustCompile(`(?i)` + pairs[i+1])})
	}
	return out
}

// Order matters: results are reported in declaration order.
var (
	materialPatterns = patterns(
		"silicone", `silicone|silicon|rubber`,
		"leather", `leather|genuine leather|pu leather|vegan leather|faux leather`,
		"metal", `metal|stainless steel|titanium|aluminum|aluminium|steel`,
		"nylon", `nylon|woven nylon|fabric|canvas|nato`,
		"milanese", `milanese|mesh|magnetic loop`,
		"resin", `resin|plastic|polymer`,
		"ceramic", `ceramic`,
		"wood", `wood|wooden|bamboo`,
		"glass", `tempered glass|glass|screen protector`,
	)
	brandPatterns = patterns(
		"apple", `apple\s*watch|iwatch|series\s*\d|ultra\s*\d|apple`,
		"samsung", `samsung|galaxy\s*watch`,
		"garmin", `garmin|fenix|forerunner|venu|vivoactive`,
		"fitbit", `fitbit|versa|sense|charge`,
		"google", `google|pixel\s*watch`,
		"huawei", `huawei|honor|gt\s*\d`,
		"amazfit", `amazfit|gts|gtr|bip`,
		"fossil", `fossil`,
		"polar", `polar`,
		"suunto", `suunto`,
		"withings", `withings`,
		"xiaomi", `xiaomi|mi\s*band|mi\s*watch`,
	)
	featurePatterns = patterns(
		"quickRelease", `quick\s*release|quick-release|easy\s*change|spring\s*bar`,
		"waterproof", `waterproof|water\s*resistant|swim|swimming|ip68|atm|diving`,
		"sport", `sport|athletic|gym|fitness|workout|running|exercise`,
		"luxury", `luxury|premium|designer|elegant|executive|dress`,
		"casual", `casual|everyday|daily|office|work`,
		"magnetic", `magnetic|magnet`,
		"breathable", `breathable|ventilated|perforated|air|holes`,
		"adjustable", `adjustable|one\s*size|universal\s*fit`,
	)
	accessoryPatterns = patterns(
		"screenProtector", `screen\s*protector|tempered\s*glass|protective\s*film|glass\s*protector`,
		"case", `case|cover|bumper|armor|protective\s*case`,
		"charger", `charger|charging\s*dock|charging\s*cable|charging\s*stand`,
		"stand", `stand|dock|holder|cradle`,
		"cleaningKit", `cleaning|cleaner|tool\s*kit`,
	)

	separatorRe   = regexp.MustCompile(`[-_]`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	sizeRe        = regexp.MustCompile(`\b(3[89]|4[0-79])\s*(?:mm)?\b`)
	seriesBlockRe = regexp.MustCompile(`series\s+([\d\s,/&]+)`)
	iwatchBlockRe = regexp.MustCompile(`iwatch\s+(?:series\s+)?([\d\s,/&]+)`)
	digitsRe      = regexp.MustCompile(`\d+`)
)

var validWatchSizes = map[string]bool{
	"38": true, "40": true, "41": true, "42": true, "44": true,
	"45": true, "46": true, "47": true, "49": true,
}

var (
	accessoryKeywords = []string{
		"protector", "screen protector", "case", "cover", "charger", "charging",
		"stand", "dock", "holder", "cleaning", "tool", "adapter", "cable",
		"tempered glass", "film", "bumper", "armor", "shield",
	}
	strapKeywords = []string{"strap", "band", "bracelet", "wristband", "watchband", "loop"}
)

// normalize lowercases and turns hyphens and underscores into spaces.
func normalize(text string) string {
	text = strings.ToLower(text)
	text = separatorRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

func matching(ps []pattern, text string) []string {
	out := []string{}
	for _, p := range ps {
		if p.re.MatchString(text) {
			out = append(out, p.name)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// IsAccessory reports whether the product is a non-strap accessory such
// as a case or screen protector.
func IsAccessory(title, description string) bool {
	text := strings.ToLower(title + " " + description)
	hasAccessory, hasStrap := false, false
	for _, kw := range accessoryKeywords {
		if strings.Contains(text, kw) {
			hasAccessory = true
			break
		}
	}
	for _, kw := range strapKeywords {
		if strings.Contains(text, kw) {
			hasStrap = true
			break
		}
	}
	return hasAccessory && !hasStrap
}

// AccessoryType classifies an accessory title, or returns "".
func AccessoryType(title string) string {
	text := strings.ToLower(title)
	for _, p := range accessoryPatterns {
		if p.re.MatchString(text) {
			return p.name
		}
	}
	return ""
}

// Analyze extracts attributes from a product's title and description.
func Analyze(title, description string) Analysis {
	text := normalize(title + " " + description)

	a := Analysis{
		Materials:     matching(materialPatterns, text),
		Brands:        matching(brandPatterns, text),
		Features:      matching(featurePatterns, text),
		WatchSizes:    watchSizes(text),
		SeriesNumbers: seriesNumbers(text),
		IsAccessory:   IsAccessory(title, description),
	}
	a.IsWaterproof = contains(a.Features, "waterproof")
	a.IsSportStyle = contains(a.Features, "sport")
	a.IsLuxury = contains(a.Features, "luxury")
	a.IsCasual = contains(a.Features, "casual")
	a.HasQuickRelease = contains(a.Features, "quickRelease")
	if a.IsAccessory {
		a.AccessoryType = AccessoryType(title)
	}
	return a
}

func watchSizes(text string) []string {
	seen := map[string]bool{}
	var nums []int
	for _, m := range sizeRe.FindAllStringSubmatch(text, -1) {
		if validWatchSizes[m[1]] && !seen[m[1]] {
			seen[m[1]] = true
			n, _ := strconv.Atoi(m[1])
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)
	out := make([]string, 0, len(nums))
	for _, n := range nums {
		out = append(out, strconv.Itoa(n)+"mm")
	}
	return out
}

// seriesNumbers collects Apple series numbers 1..11 following "series"
// or "iwatch".
func seriesNumbers(text string) []string {
	seen := map[int]bool{}
	var nums []int
	for _, re := range []*regexp.Regexp{seriesBlockRe, iwatchBlockRe} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		for _, d := range digitsRe.FindAllString(m[1], -1) {
			n, err := strconv.Atoi(d)
			if err != nil || n < 1 || n > 11 || seen[n] {
				continue
			}
			seen[n] = true
			nums = append(nums, n)
		}
	}
	sort.Ints(nums)
	out := make([]string, 0, len(nums))
	for _, n := range nums {
		out = append(out, strconv.Itoa(n))
	}
	return out
}
