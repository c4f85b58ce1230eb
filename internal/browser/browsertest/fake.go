// Package browsertest provides an in-memory Session that models the bulb
// finder's dependent selects for tests.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bulbfinder/harvester/internal/browser"
	"bulbfinder/harvester/internal/domain"
)

const Placeholder = "Please Select"

// Node is one option of the tree; Children are the options revealed by selecting it.
type Node struct {
	Code     string
	Label    string
	Children []Node
}

// N builds a node whose code is derived from its label.
func N(label string, children ...Node) Node {
	return Node{Code: "c-" + strings.ReplaceAll(label, " ", "_"), Label: label, Children: children}
}

type control struct {
	name  string
	level domain.Level
}

func (c control) Name() string {
	return c.name
}

// Session is a fake browser.Session. Paths used as keys are labels joined
// with "/", e.g. "2020/Honda".
type Session struct {
	Years    []Node
	Controls domain.ControlNames

	NavigateErr error
	// ReloadErrs is consumed one error per Reload call; nil entries succeed.
	ReloadErrs []error
	// SelectFailures counts how many times selecting the node at a path fails.
	SelectFailures map[string]int
	// WaitTimeouts lists parent paths whose child control never fills up.
	WaitTimeouts map[string]bool
	// MissingControls lists parent paths under which the child control is absent.
	MissingControls map[string]bool
	// OnSelect runs after every successful selection.
	OnSelect func(path string)

	Navigations int
	Reloads     int
	Closed      bool
	Selections  []string

	loaded   bool
	selected []Node
}

var _ browser.Session = (*Session)(nil)

func New(years ...Node) *Session {
	return &Session{
		Years:           years,
		Controls:        domain.DefaultControlNames(),
		SelectFailures:  map[string]int{},
		WaitTimeouts:    map[string]bool{},
		MissingControls: map[string]bool{},
	}
}

func (s *Session) Navigate(ctx context.Context, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Navigations++
	if s.NavigateErr != nil {
		return s.NavigateErr
	}
	s.loaded = true
	s.selected = nil
	return nil
}

func (s *Session) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Reloads++
	if len(s.ReloadErrs) > 0 {
		err := s.ReloadErrs[0]
		s.ReloadErrs = s.ReloadErrs[1:]
		if err != nil {
			return err
		}
	}
	s.selected = nil
	return nil
}

func (s *Session) FindControl(ctx context.Context, name string) (browser.Control, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.loaded {
		return nil, fmt.Errorf("%w: %s: page not loaded", browser.ErrControlNotFound, name)
	}
	level, ok := s.levelOf(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", browser.ErrControlNotFound, name)
	}
	if level > domain.LevelYear && len(s.selected) >= int(level) && s.MissingControls[s.path(int(level))] {
		return nil, fmt.Errorf("%w: %s", browser.ErrControlNotFound, name)
	}
	return control{name: name, level: level}, nil
}

func (s *Session) ListOptions(ctx context.Context, c browser.Control) ([]domain.RawOption, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nodes, err := s.nodes(c)
	if err != nil {
		return nil, err
	}
	options := []domain.RawOption{{Value: "", Text: Placeholder}}
	for _, n := range nodes {
		options = append(options, domain.RawOption{Value: n.Code, Text: n.Label})
	}
	return options, nil
}

func (s *Session) WaitForOptionCount(ctx context.Context, c browser.Control, minCount int, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctl, ok := c.(control)
	if !ok {
		return errors.New("foreign control")
	}
	if len(s.selected) >= int(ctl.level) && ctl.level > domain.LevelYear && s.WaitTimeouts[s.path(int(ctl.level))] {
		return fmt.Errorf("%w: %s", browser.ErrWaitTimeout, ctl.name)
	}
	options, err := s.ListOptions(ctx, c)
	if err != nil {
		return err
	}
	if len(options) < minCount {
		return fmt.Errorf("%w: %s has %d options", browser.ErrWaitTimeout, ctl.name, len(options))
	}
	return nil
}

func (s *Session) Select(ctx context.Context, c browser.Control, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ctl, ok := c.(control)
	if !ok {
		return errors.New("foreign control")
	}
	nodes, err := s.nodes(c)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		if n.Code != value {
			continue
		}
		path := s.path(int(ctl.level))
		if path != "" {
			path += "/"
		}
		path += n.Label
		if s.SelectFailures[path] > 0 {
			s.SelectFailures[path]--
			return fmt.Errorf("stale element selecting %s", path)
		}
		s.selected = append(s.selected[:ctl.level], n)
		s.Selections = append(s.Selections, path)
		if s.OnSelect != nil {
			s.OnSelect(path)
		}
		return nil
	}
	return fmt.Errorf("option %q not present on %s", value, ctl.name)
}

func (s *Session) Close() error {
	s.Closed = true
	return nil
}

// nodes returns the options currently offered by a control, or none when its
// parent is not selected.
func (s *Session) nodes(c browser.Control) ([]Node, error) {
	ctl, ok := c.(control)
	if !ok {
		return nil, errors.New("foreign control")
	}
	if ctl.level == domain.LevelYear {
		return s.Years, nil
	}
	if len(s.selected) < int(ctl.level) {
		return nil, nil
	}
	return s.selected[ctl.level-1].Children, nil
}

func (s *Session) path(depth int) string {
	labels := make([]string, 0, depth)
	for i := 0; i < depth && i < len(s.selected); i++ {
		labels = append(labels, s.selected[i].Label)
	}
	return strings.Join(labels, "/")
}

func (s *Session) levelOf(name string) (domain.Level, bool) {
	for _, l := range domain.Levels {
		if s.Controls.For(l) == name {
			return l, true
		}
	}
	return 0, false
}
