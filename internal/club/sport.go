package club

// Sport describes how a sport is played on a unit.
type Sport struct {
	Key            string `json:"key"`
	DisplayName    string `json:"display_name"`
	UnitLabel      string `json:"unit_label"`
	PlayersPerUnit int    `json:"players_per_unit"`
}

// DefaultSport is used when a club names a sport the catalog does not know.
const DefaultSport = "badminton"

var sports = map[string]Sport{
	"badminton":    {Key: "badminton", DisplayName: "Badminton", UnitLabel: "Court", PlayersPerUnit: 4},
	"tennis":       {Key: "tennis", DisplayName: "Tennis", UnitLabel: "Court", PlayersPerUnit: 4},
	"padel":        {Key: "padel", DisplayName: "Padel", UnitLabel: "Court", PlayersPerUnit: 4},
	"pickleball":   {Key: "pickleball", DisplayName: "Pickleball", UnitLabel: "Court", PlayersPerUnit: 4},
	"squash":       {Key: "squash", DisplayName: "Squash", UnitLabel: "Court", PlayersPerUnit: 2},
	"table_tennis": {Key: "table_tennis", DisplayName: "Table Tennis", UnitLabel: "Table", PlayersPerUnit: 2},
}

// LookupSport returns the catalog entry for key and whether it exists.
func LookupSport(key string) (Sport, bool) {
	s, ok := sports[key]
	return s, ok
}

// SportOf returns the club's sport, falling back to DefaultSport.
func (c *Club) SportOf() Sport {
	if s, ok := sports[c.Sport]; ok {
		return s
	}
	return sports[DefaultSport]
}
