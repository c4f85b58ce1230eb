package navigator

import (
	"bulbfinder/harvester/internal/domain"

	log "github.com/sirupsen/logrus"
)

type State int

const (
	StateInit State = iota
	StateAtYear
	StateAtMake
	StateAtModel
	StateAtPosition
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateAtYear:
		return "AtYear"
	case StateAtMake:
		return "AtMake"
	case StateAtModel:
		return "AtModel"
	case StateAtPosition:
		return "AtPosition"
	case StateDone:
		return "Done"
	case StateAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

func stateFor(level domain.Level) State {
	switch level {
	case domain.LevelYear:
		return StateAtYear
	case domain.LevelMake:
		return StateAtMake
	case domain.LevelModel:
		return StateAtModel
	default:
		return StateAtPosition
	}
}

// traversalState tracks where the navigator is in the tree. It lives for one
// Run and is never persisted.
type traversalState struct {
	state State
	path  []domain.OptionEntry // selected entry per completed level
}

func (t *traversalState) enter(level domain.Level, entry domain.OptionEntry) {
	t.path = append(t.path[:level], entry)
	t.transition(stateFor(level))
}

func (t *traversalState) transition(to State) {
	if t.state != to {
		log.Debugf("state %s -> %s", t.state, to)
	}
	t.state = to
}

func (t *traversalState) labels() []string {
	labels := make([]string, len(t.path))
	for i, e := range t.path {
		labels[i] = e.Label
	}
	return labels
}

func (t *traversalState) fields() log.Fields {
	fields := log.Fields{}
	for i, e := range t.path {
		fields[domain.Level(i).String()] = e.Label
	}
	return fields
}
