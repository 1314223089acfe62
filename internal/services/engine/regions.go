package engine

// Fixed regional grouping (UN M49 sub-regions) for the 54 African
// countries. Used by the resolver's regional-mean fallback; the grouping is
// part of the resolution contract and deliberately not configurable.
const (
	RegionNorthern = "northern-africa"
	RegionWestern  = "western-africa"
	RegionEastern  = "eastern-africa"
	RegionMiddle   = "middle-africa"
	RegionSouthern = "southern-africa"
)

var countryRegion = map[string]string{
	// Northern Africa
	"DZA": RegionNorthern, "EGY": RegionNorthern, "LBY": RegionNorthern,
	"MAR": RegionNorthern, "SDN": RegionNorthern, "TUN": RegionNorthern,
	// Western Africa
	"BEN": RegionWestern, "BFA": RegionWestern, "CPV": RegionWestern,
	"CIV": RegionWestern, "GMB": RegionWestern, "GHA": RegionWestern,
	"GIN": RegionWestern, "GNB": RegionWestern, "LBR": RegionWestern,
	"MLI": RegionWestern, "MRT": RegionWestern, "NER": RegionWestern,
	"NGA": RegionWestern, "SEN": RegionWestern, "SLE": RegionWestern,
	"TGO": RegionWestern,
	// Eastern Africa
	"BDI": RegionEastern, "COM": RegionEastern, "DJI": RegionEastern,
	"ERI": RegionEastern, "ETH": RegionEastern, "KEN": RegionEastern,
	"MDG": RegionEastern, "MWI": RegionEastern, "MUS": RegionEastern,
	"MOZ": RegionEastern, "RWA": RegionEastern, "SYC": RegionEastern,
	"SOM": RegionEastern, "SSD": RegionEastern, "TZA": RegionEastern,
	"UGA": RegionEastern, "ZMB": RegionEastern, "ZWE": RegionEastern,
	// Middle Africa
	"AGO": RegionMiddle, "CMR": RegionMiddle, "CAF": RegionMiddle,
	"TCD": RegionMiddle, "COG": RegionMiddle, "COD": RegionMiddle,
	"GNQ": RegionMiddle, "GAB": RegionMiddle, "STP": RegionMiddle,
	// Southern Africa
	"BWA": RegionSouthern, "SWZ": RegionSouthern, "LSO": RegionSouthern,
	"NAM": RegionSouthern, "ZAF": RegionSouthern,
}

// RegionOf returns the sub-region for an ISO3 code, or "" if unknown.
func RegionOf(iso3 string) string { return countryRegion[iso3] }
