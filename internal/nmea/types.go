package nmea

// Type identifies a catalog sentence by its three letter identifier.
type Type int

const (
	TypeUnknown Type = iota
	TypeGGA
	TypeRMC
	TypeVTG
	TypeGLL
	TypeDTM
	TypeGSV
	TypeGSA
)

// Types lists every catalog type in dispatch order.
var Types = []Type{TypeGGA, TypeRMC, TypeVTG, TypeGLL, TypeDTM, TypeGSV, TypeGSA}

func (t Type) String() string {
	switch t {
	case TypeGGA:
		return "GGA"
	case TypeRMC:
		return "RMC"
	case TypeVTG:
		return "VTG"
	case TypeGLL:
		return "GLL"
	case TypeDTM:
		return "DTM"
	case TypeGSV:
		return "GSV"
	case TypeGSA:
		return "GSA"
	default:
		return "unknown"
	}
}

// ParseType reads the identifier at line[3:6] of a "$TTTTT,..." line. The
// two letter talker is not checked.
func ParseType(line string) Type {
	if len(line) < 6 || line[0] != '$' {
		return TypeUnknown
	}
	switch line[3:6] {
	case "GGA":
		return TypeGGA
	case "RMC":
		return TypeRMC
	case "VTG":
		return TypeVTG
	case "GLL":
		return TypeGLL
	case "DTM":
		return TypeDTM
	case "GSV":
		return TypeGSV
	case "GSA":
		return TypeGSA
	default:
		return TypeUnknown
	}
}
