package catalog

// ProsAndCons is the short verdict shown on a product page: three pros and
// one con.
type ProsAndCons struct {
	Pros []string `json:"pros"`
	Cons []string `json:"cons"`
}

type verdict struct {
	pros []string
	con  string
}

var accessoryVerdicts = map[string]verdict{
	"screenProtector": {
		pros: []string{
			"Keeps original touch responsiveness intact",
			"Protects against scratches and daily wear",
			"Crystal clear visibility with anti-fingerprint coating",
		},
		con: "Requires careful bubble-free installation",
	},
	"case": {
		pros: []string{
			"Full protection against bumps and drops",
			"Slim fit that doesn't add bulk",
			"Easy snap-on installation",
		},
		con: "May need removal for some charging docks",
	},
	"charger": chargingVerdict,
	"stand":   chargingVerdict,
}

var chargingVerdict = verdict{
	pros: []string{
		"Convenient bedside or desk charging",
		"Keeps your watch at a perfect viewing angle",
		"Stable non-slip base design",
	},
	con: "Requires nearby power outlet",
}

var genericAccessoryVerdict = verdict{
	pros: []string{
		"Enhances your smartwatch experience",
		"High-quality materials for durability",
		"Perfect fit guaranteed",
	},
	con: "Accessory only, watch not included",
}

// Checked in order; the first material present wins.
var materialVerdicts = []struct {
	materials []string
	verdict   verdict
}{
	{[]string{"silicone"}, verdict{
		pros: []string{
			"Waterproof and sweat-resistant, ideal for sports and swimming",
			"Lightweight and flexible for all-day comfort",
			"Easy to clean and maintain",
		},
		con: "May not suit formal or business occasions",
	}},
	{[]string{"leather"}, verdict{
		pros: []string{
			"Stylish and sophisticated, perfect for any occasion",
			"Develops unique patina over time for a personalised look",
			"Comfortable and breathable against skin",
		},
		con: "Not recommended for water exposure or intense workouts",
	}},
	{[]string{"metal", "milanese"}, verdict{
		pros: []string{
			"Premium look that elevates your watch instantly",
			"Extremely durable, built to last years",
			"Suitable for both casual and formal wear",
		},
		con: "Slightly heavier than fabric or silicone options",
	}},
	{[]string{"nylon"}, verdict{
		pros: []string{
			"Ultra-lightweight and breathable fabric",
			"Quick-drying and perfect for active lifestyles",
			"Comfortable for extended wear",
		},
		con: "May show wear over time with heavy use",
	}},
}

var defaultStrapVerdict = verdict{
	pros: []string{
		"High-quality materials for lasting durability",
		"Perfect fit guarantee with easy installation",
		"Comfortable for all-day wear",
	},
	con: "May require brief break-in period for optimal comfort",
}

// Verdict picks the pros and cons for an analysed product. Accessories are
// judged by type, straps by their first recognised material.
func Verdict(a Analysis) ProsAndCons {
	v := strapVerdict(a)
	if a.IsAccessory {
		v = genericAccessoryVerdict
		if av, ok := accessoryVerdicts[a.AccessoryType]; ok {
			v = av
		}
	}
	return ProsAndCons{
		Pros: append([]string(nil), v.pros...),
		Cons: []string{v.con},
	}
}

func strapVerdict(a Analysis) verdict {
	for _, mv := range materialVerdicts {
		for _, m := range mv.materials {
			if contains(a.Materials, m) {
				return mv.verdict
			}
		}
	}
	return defaultStrapVerdict
}
