package modifier

import (
	"fmt"
	"strings"

	"github.com/gosnmp/gosnmp"
)

// Build constructs the Modifier or ContextExpander named by kind, reading
// its tuning from props. Per spec §4.3, kind is matched case-insensitively
// against a fixed registry; an unrecognized kind is the caller's job to
// log-and-omit (Build returns an error so the caller can do exactly that).
func Build(kind string, props Properties) (interface{}, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "integer32":
		return newBoundedStepModifier(
			gosnmp.Integer,
			props.Long("minimum", int32Min),
			props.Long("maximum", int32Max),
			props.Long("minimumStep", -1),
			props.Long("maximumStep", 1),
			props.Long("seed", 0),
		), nil
	case "uint32", "gauge32":
		return newBoundedStepModifier(
			gosnmp.Gauge32,
			props.Long("minimum", 0),
			props.Long("maximum", uint32Max),
			props.Long("minimumStep", 0),
			props.Long("maximumStep", 1),
			props.Long("seed", 0),
		), nil
	case "counter32":
		return newBoundedStepModifier(
			gosnmp.Counter32,
			props.Long("minimum", 0),
			props.Long("maximum", uint32Max),
			props.Long("minimumStep", 0),
			props.Long("maximumStep", 1),
			props.Long("seed", 0),
		), nil
	case "timeticks":
		return newBoundedStepModifier(
			gosnmp.TimeTicks,
			props.Long("minimum", 0),
			props.Long("maximum", uint32Max),
			props.Long("minimumStep", 0),
			props.Long("maximumStep", 1),
			props.Long("seed", 0),
		), nil
	case "sysuptime":
		return newBoundedStepModifier(
			gosnmp.TimeTicks,
			props.Long("minimum", 0),
			props.Long("maximum", uint32Max),
			props.Long("minimumStep", 100),
			props.Long("maximumStep", 100),
			props.Long("seed", 0),
		), nil
	case "counter64":
		return newCounter64Modifier(
			props.UnsignedLong("minimum", 0),
			props.UnsignedLong("maximum", uint64Max),
			props.UnsignedLong("minimumStep", 0),
			props.UnsignedLong("maximumStep", 1),
			props.Long("seed", 0),
		), nil
	case "octetstring":
		return newOctetStringModifier(
			props.StringList("values"),
			strings.ToLower(props.String("mode", "random")),
			props.Long("seed", 0),
		), nil
	case "communitycontext":
		return newCommunityContextModifier(props), nil
	default:
		return nil, fmt.Errorf("modifier: unknown kind %q", kind)
	}
}
