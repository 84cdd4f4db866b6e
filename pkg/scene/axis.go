package scene

// Axis names a coordinate axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	default:
		return "?"
	}
}

// Parity selects which of the two remaining axes is the front axis.
type Parity int

const (
	ParityEven Parity = iota
	ParityOdd
)

// Handedness of a coordinate system.
type Handedness int

const (
	RightHanded Handedness = iota
	LeftHanded
)

// AxisSystem is the axis declaration a scene file carries.
type AxisSystem struct {
	Up         Axis
	UpSign     int
	Front      Parity
	FrontSign  int
	Handedness Handedness
}

// Declarations of the two authoring tools that can be forced over a file's own metadata.
var (
	Max3ds  = AxisSystem{Up: AxisZ, UpSign: 1, Front: ParityOdd, FrontSign: -1, Handedness: RightHanded}
	MayaYUp = AxisSystem{Up: AxisY, UpSign: 1, Front: ParityOdd, FrontSign: 1, Handedness: RightHanded}
)

// FrontAxis resolves the parity against the up axis.
func (s AxisSystem) FrontAxis() Axis {
	switch s.Up {
	case AxisX:
		if s.Front == ParityEven {
			return AxisY
		}
		return AxisZ
	case AxisY:
		if s.Front == ParityEven {
			return AxisX
		}
		return AxisZ
	default:
		if s.Front == ParityEven {
			return AxisX
		}
		return AxisY
	}
}
