package airquality

// Tier is the ordinal air quality level: 1 is excellent, 5 is poor.
type Tier int

type band struct {
	lower int
	tier  Tier
}

// Threshold bands, highest lower bound first. A value belongs to the
// first band whose lower bound it reaches.
var co2Bands = []band{
	{5000, 5},
	{2000, 4},
	{1000, 3},
	{400, 2},
	{0, 1},
}

var vocBands = []band{
	{500, 5},
	{325, 4},
	{50, 3},
	{25, 2},
	{0, 1},
}

// ClassifyCo2 maps a CO2 equivalent concentration (ppm) to a Tier.
func ClassifyCo2(ppm int) Tier {
	return classify(co2Bands, ppm)
}

// ClassifyVoc maps a VOC concentration (ppb) to a Tier.
func ClassifyVoc(ppb int) Tier {
	return classify(vocBands, ppb)
}

func classify(bands []band, value int) Tier {
	for _, b := range bands {
		if value >= b.lower {
			return b.tier
		}
	}
	// negative readings cannot come off the wire (16-bit unsigned words);
	// clamp to the best tier if one ever shows up through the int API
	return 1
}

// Combined reduces a measurement to a single Tier. The worse of the
// two gas tiers dominates.
func Combined(m Measurement) Tier {
	co2 := ClassifyCo2(int(m.Co2Ppm))
	voc := ClassifyVoc(int(m.VocPpb))
	if voc > co2 {
		return voc
	}
	return co2
}
