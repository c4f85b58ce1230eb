package domain

type Level int

const (
	LevelYear     Level = iota // bulbFinderYear
	LevelMake                  // bulbFinderMake
	LevelModel                 // bulbFinderModel
	LevelPosition              // bulbFinderPositions
)

var Levels = []Level{
	LevelYear,
	LevelMake,
	LevelModel,
	LevelPosition,
}

func (l Level) String() string {
	switch l {
	case LevelYear:
		return "year"
	case LevelMake:
		return "make"
	case LevelModel:
		return "model"
	case LevelPosition:
		return "position"
	default:
		return "unknown"
	}
}

// Child returns the level revealed by a selection at l.
func (l Level) Child() Level {
	if l >= LevelPosition {
		return LevelPosition
	}
	return l + 1
}

// IsLeaf reports whether selecting at this level ends the traversal of a branch.
func (l Level) IsLeaf() bool {
	return l == LevelPosition
}

// ControlNames maps each level to the form control that holds its options.
type ControlNames map[Level]string

// DefaultControlNames are the select names used by the bulb finder form.
func DefaultControlNames() ControlNames {
	return ControlNames{
		LevelYear:     "bulbFinderYear",
		LevelMake:     "bulbFinderMake",
		LevelModel:    "bulbFinderModel",
		LevelPosition: "bulbFinderPositions",
	}
}

func (c ControlNames) For(l Level) string {
	if name, ok := c[l]; ok && name != "" {
		return name
	}
	return DefaultControlNames()[l]
}
