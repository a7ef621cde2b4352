package flatten

// countyNames maps 5-digit Maryland FIPS codes to county display names.
// 24007 is the legacy Baltimore City code still present in older datasets;
// 24510 is the current one.
var countyNames = map[string]string{
	"24001": "Allegany",
	"24003": "Anne Arundel",
	"24005": "Baltimore",
	"24007": "Baltimore City",
	"24009": "Calvert",
	"24011": "Caroline",
	"24013": "Carroll",
	"24015": "Cecil",
	"24017": "Charles",
	"24019": "Dorchester",
	"24021": "Frederick",
	"24023": "Garrett",
	"24025": "Harford",
	"24027": "Howard",
	"24029": "Kent",
	"24031": "Montgomery",
	"24033": "Prince George's",
	"24035": "Queen Anne's",
	"24037": "St. Mary's",
	"24039": "Somerset",
	"24041": "Talbot",
	"24043": "Washington",
	"24045": "Wicomico",
	"24047": "Worcester",
	"24510": "Baltimore City",
}

// CountyName resolves a FIPS code to its display name. Unknown codes map to
// "Unknown" rather than failing, so stray keys still produce usable rows.
func CountyName(fips string) string {
	if name, ok := countyNames[fips]; ok {
		return name
	}
	return "Unknown"
}
