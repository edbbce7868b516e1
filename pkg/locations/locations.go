// Package locations enumerates the geographic query scopes the collector
// partitions its work over: the two-letter US state codes (plus DC) and the
// fixed set of Nevada ZIP codes that stand in for NV.
package locations

// NevadaZIPCodes are queried in place of the NV state code. The upstream API
// returns bad results for location=NV, so collection for Nevada is split
// across these ZIP codes instead.
var NevadaZIPCodes = []string{
	"89009", "89011", "89014", "89015", "89019", "89024", "89027", "89032",
	"89048", "89052", "89074", "89101", "89103", "89104", "89107", "89113",
	"89117", "89118", "89119", "89120", "89121", "89122", "89123", "89128",
	"89129", "89130", "89131", "89134", "89135", "89136", "89139", "89143",
	"89145", "89146", "89147", "89148", "89149", "89183", "89193", "89406",
	"89408", "89410", "89415", "89423", "89429", "89431", "89434", "89436",
	"89445", "89447", "89450", "89451", "89460", "89502", "89506", "89511",
	"89512", "89523", "89701", "89704", "89703", "89702", "89706", "89801",
}

// DefaultStates lists the 50 US states plus DC. NV is included even though
// its actual collection happens through NevadaZIPCodes; a direct NV query
// returns too few results to matter and keeps the set self-describing.
var DefaultStates = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "LA", "ME", "MD", "KY",
	"MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "MA", "RI",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "SC", "NJ",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
	"DC",
}

var nevadaZIPSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(NevadaZIPCodes))
	for _, zip := range NevadaZIPCodes {
		set[zip] = struct{}{}
	}
	return set
}()

// All returns the full location set in collection order: the Nevada ZIP
// stand-ins first, then the state codes. The order only determines which
// location a resumed run picks up next, not correctness.
func All() []string {
	all := make([]string, 0, len(NevadaZIPCodes)+len(DefaultStates))
	all = append(all, NevadaZIPCodes...)
	all = append(all, DefaultStates...)
	return all
}

// Normalize maps a location back to its two-letter state code. Nevada ZIP
// stand-ins normalize to "NV"; every other location is already a state code
// and is returned unchanged.
func Normalize(location string) string {
	if _, ok := nevadaZIPSet[location]; ok {
		return "NV"
	}
	return location
}

// IsZIPStandIn reports whether location is one of the Nevada ZIP stand-ins.
func IsZIPStandIn(location string) bool {
	_, ok := nevadaZIPSet[location]
	return ok
}
