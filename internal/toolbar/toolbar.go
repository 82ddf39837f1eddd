// Package toolbar holds the table's action buttons. Actions receive the grid
// they operate on; they keep no state of their own.
package toolbar

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jask/mintpick/internal/export"
	"github.com/jask/mintpick/internal/grid"
)

var (
	// ErrUnknownAction is returned when triggering an action that was never registered.
	ErrUnknownAction = errors.New("unknown action")

	// ErrDisabled is returned when triggering an action whose enablement rule fails.
	ErrDisabled = errors.New("action disabled")
)

// Action names registered by Default.
const (
	SelectFiltered = "selectFiltered"
	SelectNone     = "selectNone"
	ExportSelected = "exportSelected"
)

// Extend names the enablement rule an action inherits.
type Extend string

const (
	// ExtendNone actions are always enabled.
	ExtendNone Extend = ""
	// ExtendSelected actions are enabled while at least one row is selected.
	ExtendSelected Extend = "selected"
)

// Result is what an action reports back to the front end.
type Result struct {
	Status string
	// Export is set by actions that produce an export payload.
	Export *export.Payload
}

// Action is one toolbar button.
type Action struct {
	Name   string
	Text   string
	Key    string
	Extend Extend
	Run    func(g *grid.Grid) (Result, error)
}

// Enabled applies the action's Extend rule to g.
func (a Action) Enabled(g *grid.Grid) bool {
	switch a.Extend {
	case ExtendSelected:
		return g != nil && g.SelectedCount() > 0
	default:
		return g != nil
	}
}

// Toolbar is an ordered set of actions.
type Toolbar struct {
	actions []Action
	log     *zap.Logger
}

// New creates a toolbar with the given actions in display order.
func New(log *zap.Logger, actions ...Action) *Toolbar {
	if log == nil {
		log = zap.NewNop()
	}
	return &Toolbar{actions: actions, log: log}
}

// Default registers select-all-filtered, select-none and export-selected.
func Default(log *zap.Logger, label string) *Toolbar {
	return New(log,
		Action{
			Name: SelectFiltered,
			Text: "Select All Filtered",
			Key:  "a",
			Run: func(g *grid.Grid) (Result, error) {
				added := g.SelectFiltered()
				return Result{Status: fmt.Sprintf("selected %d more (%d total)", added, g.SelectedCount())}, nil
			},
		},
		Action{
			Name:   SelectNone,
			Text:   "Select None",
			Key:    "n",
			Extend: ExtendSelected,
			Run: func(g *grid.Grid) (Result, error) {
				cleared := g.SelectNone()
				return Result{Status: fmt.Sprintf("cleared %d selected", cleared)}, nil
			},
		},
		Action{
			Name:   ExportSelected,
			Text:   "Export Selected",
			Key:    "e",
			Extend: ExtendSelected,
			Run: func(g *grid.Grid) (Result, error) {
				p := export.New(label, g.Selected())
				return Result{
					Status: fmt.Sprintf("exported %d mint addresses", len(p.Mints)),
					Export: &p,
				}, nil
			},
		},
	)
}

// Actions returns the registered actions in display order.
func (t *Toolbar) Actions() []Action {
	out := make([]Action, len(t.actions))
	copy(out, t.actions)
	return out
}

// Lookup finds an action by name.
func (t *Toolbar) Lookup(name string) (Action, bool) {
	for _, a := range t.actions {
		if a.Name == name {
			return a, true
		}
	}
	return Action{}, false
}

// ByKey finds an action by its key binding.
func (t *Toolbar) ByKey(key string) (Action, bool) {
	for _, a := range t.actions {
		if a.Key != "" && a.Key == key {
			return a, true
		}
	}
	return Action{}, false
}

// Trigger runs the named action against g.
func (t *Toolbar) Trigger(name string, g *grid.Grid) (Result, error) {
	a, ok := t.Lookup(name)
	if !ok {
		return Result{}, fmt.Errorf("%q: %w", name, ErrUnknownAction)
	}
	if !a.Enabled(g) {
		return Result{}, fmt.Errorf("%q: %w", name, ErrDisabled)
	}
	res, err := a.Run(g)
	if err != nil {
		t.log.Warn("action failed", zap.String("action", name), zap.Error(err))
		return Result{}, fmt.Errorf("%s: %w", name, err)
	}
	fields := []zap.Field{zap.String("action", name), zap.Int("selected", g.SelectedCount())}
	if res.Export != nil {
		fields = append(fields, zap.String("export_id", res.Export.ID), zap.Int("mints", len(res.Export.Mints)))
	}
	t.log.Info("action triggered", fields...)
	return res, nil
}
