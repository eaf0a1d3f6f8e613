package classify

// Rules parameterizes the classifier for one site. Zero fields fall back to
// DefaultRules; the thresholds are tuning constants, not derived values.
type Rules struct {
	// Brands are chain names that prefix a location, e.g. "pvr" in
	// "PVR Centro Mall". Targets containing one get proximity matching.
	Brands []string `yaml:"brands" json:"brands,omitempty"`
	// MinLocationLen is the shortest token treated as a location.
	MinLocationLen int `yaml:"min_location_len" json:"min_location_len,omitempty"`
	// BrandWindow is the largest gap in characters between a brand and a location.
	BrandWindow int `yaml:"brand_window" json:"brand_window,omitempty"`

	ProximityBefore int `yaml:"proximity_before" json:"proximity_before,omitempty"`
	ProximityAfter  int `yaml:"proximity_after" json:"proximity_after,omitempty"`
	// MaxMentions bounds how many occurrences of one screen are scanned.
	MaxMentions int `yaml:"max_mentions" json:"max_mentions,omitempty"`

	ClusterMin   int `yaml:"cluster_min" json:"cluster_min,omitempty"`
	ClusterGap   int `yaml:"cluster_gap" json:"cluster_gap,omitempty"`
	MaxShowtimes int `yaml:"max_showtimes" json:"max_showtimes,omitempty"`

	StrongIndicators []string `yaml:"strong_indicators" json:"strong_indicators,omitempty"`
	WeakIndicators   []string `yaml:"weak_indicators" json:"weak_indicators,omitempty"`
	ScreenLabels     []string `yaml:"screen_labels" json:"screen_labels,omitempty"`

	NameSelectors []string `yaml:"name_selectors" json:"name_selectors,omitempty"`
	MinNameLen    int      `yaml:"min_name_len" json:"min_name_len,omitempty"`
	MaxNameLen    int      `yaml:"max_name_len" json:"max_name_len,omitempty"`
}

func DefaultRules() Rules {
	return Rules{
		Brands:          []string{"pvr", "inox", "cinepolis", "carnival", "miraj"},
		MinLocationLen:  4,
		BrandWindow:     30,
		ProximityBefore: 200,
		ProximityAfter:  500,
		MaxMentions:     20,
		ClusterMin:      3,
		ClusterGap:      200,
		MaxShowtimes:    10,
		StrongIndicators: []string{
			"select seats", "select seat", "choose seats", "book your seats",
			"select show", "book now", "buy now",
		},
		WeakIndicators: []string{
			"book tickets", "buy tickets", "available", "choose time",
		},
		ScreenLabels: []string{"screen", "audi"},
		NameSelectors: []string{
			".cinema-name", ".theater-name", ".theatre-name", ".venue-name",
			"[class*=cinema]", "[class*=theater]", "[class*=theatre]", "[class*=venue]", "[class*=multiplex]",
			"h1", "h2", "h3", "h4", "h5", "h6",
			".card-title", ".listing-title", ".title", ".name", ".location-name", ".mall-name",
		},
		MinNameLen: 3,
		MaxNameLen: 100,
	}
}

// Merge returns r with every zero field taken from base.
func (r Rules) Merge(base Rules) Rules {
	out := r
	if len(out.Brands) == 0 {
		out.Brands = base.Brands
	}
	if out.MinLocationLen <= 0 {
		out.MinLocationLen = base.MinLocationLen
	}
	if out.BrandWindow <= 0 {
		out.BrandWindow = base.BrandWindow
	}
	if out.ProximityBefore <= 0 {
		out.ProximityBefore = base.ProximityBefore
	}
	if out.ProximityAfter <= 0 {
		out.ProximityAfter = base.ProximityAfter
	}
	if out.MaxMentions <= 0 {
		out.MaxMentions = base.MaxMentions
	}
	if out.ClusterMin <= 0 {
		out.ClusterMin = base.ClusterMin
	}
	if out.ClusterGap <= 0 {
		out.ClusterGap = base.ClusterGap
	}
	if out.MaxShowtimes <= 0 {
		out.MaxShowtimes = base.MaxShowtimes
	}
	if len(out.StrongIndicators) == 0 {
		out.StrongIndicators = base.StrongIndicators
	}
	if len(out.WeakIndicators) == 0 {
		out.WeakIndicators = base.WeakIndicators
	}
	if len(out.ScreenLabels) == 0 {
		out.ScreenLabels = base.ScreenLabels
	}
	if len(out.NameSelectors) == 0 {
		out.NameSelectors = base.NameSelectors
	}
	if out.MinNameLen <= 0 {
		out.MinNameLen = base.MinNameLen
	}
	if out.MaxNameLen <= 0 {
		out.MaxNameLen = base.MaxNameLen
	}
	return out
}
