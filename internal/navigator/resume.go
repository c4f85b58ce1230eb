package navigator

import (
	"bulbfinder/harvester/internal/domain"

	log "github.com/sirupsen/logrus"
)

// resumePlan fast-forwards the first sibling group at each depth to the
// cursor's label. It applies to a level only while the traversal is still on
// the cursor's path, and is consumed as soon as that group has been entered.
type resumePlan struct {
	cursor domain.Cursor
	armed  domain.Level // level the plan may apply to next
}

func newResumePlan(cursor domain.Cursor) *resumePlan {
	cursor = cursor.Normalize()
	armed := domain.LevelYear
	if cursor.IsZero() {
		armed = domain.LevelPosition
	}
	return &resumePlan{cursor: cursor, armed: armed}
}

func (r *resumePlan) exhausted() bool {
	return r.armed >= domain.LevelPosition
}

// startIndex returns the index of the first option to visit in a sibling group
// at level, given the labels selected above it.
func (r *resumePlan) startIndex(level domain.Level, parents []string, options []domain.OptionEntry) int {
	if r.armed != level {
		return 0
	}

	label := r.cursor.Label(level)
	if label == "" || !r.onCursorPath(parents) {
		r.armed = domain.LevelPosition
		return 0
	}

	for i, opt := range options {
		if opt.Label == label {
			r.armed = level.Child()
			if i > 0 {
				log.Infof("⏩ Resuming %s at %q, skipping %d earlier options", level, label, i)
			}
			return i
		}
	}

	log.Warnf("⚠️ Resume %s %q not offered anymore, starting from the first option", level, label)
	r.armed = domain.LevelPosition
	return 0
}

func (r *resumePlan) onCursorPath(parents []string) bool {
	for i, label := range parents {
		if r.cursor.Label(domain.Level(i)) != label {
			return false
		}
	}
	return true
}
