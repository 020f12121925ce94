package bing

import (
	"strconv"
	"strings"

	"github.com/NERVsystems/routemodel/pkg/core"
)

// BuildQuery encodes waypoints and their via-points as a Routes query
// fragment. A single counter numbers every point in emission order:
//
//	wp.0, vwp.1 .. vwp.k (leg 0), wp.k+1, ... , wp.N
//
// via[i] holds the via-points of the leg that starts at waypoints[i]; a
// missing group is treated as empty. Every parameter, including the last,
// is followed by '&' so formatting options can be appended directly.
func BuildQuery(waypoints []core.Coordinate, via [][]core.Coordinate) string {
	var b strings.Builder
	n := 0
	for i, wp := range waypoints {
		writePoint(&b, "wp", n, wp)
		n++
		if i == len(waypoints)-1 || i >= len(via) {
			continue
		}
		for _, p := range via[i] {
			writePoint(&b, "vwp", n, p)
			n++
		}
	}
	return b.String()
}

func writePoint(b *strings.Builder, prefix string, index int, c core.Coordinate) {
	b.WriteString(prefix)
	b.WriteByte('.')
	b.WriteString(strconv.Itoa(index))
	b.WriteByte('=')
	b.WriteString(FormatDegrees(c.Latitude))
	b.WriteByte(',')
	b.WriteString(FormatDegrees(c.Longitude))
	b.WriteByte('&')
}

// FormatDegrees renders a coordinate component with the shortest exact
// decimal form, keeping a trailing ".0" on whole numbers (1 -> "1.0").
func FormatDegrees(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}
