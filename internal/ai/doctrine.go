package ai

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"ruinfall.game/internal/sim/tuning"
)

type Action string

const (
	ActionReload     Action = "reload"
	ActionHeal       Action = "heal"
	ActionSearch     Action = "search"
	ActionReposition Action = "reposition"
	ActionFire       Action = "fire"
	ActionFinish     Action = "finish"
)

func (a Action) valid() bool {
	switch a {
	case ActionReload, ActionHeal, ActionSearch, ActionReposition, ActionFire, ActionFinish:
		return true
	}
	return false
}

// Env is what a rule condition can see about one unit.
type Env struct {
	Turn      int
	Health    int
	MaxHealth int
	Moves     int
	Ammo      int
	Capacity  int
	ShotCost  int

	CanReload bool
	CanHeal   bool
	CanFire   bool

	EnemiesVisible int
	// ChanceToHit is against the easiest visible target, weapon included.
	// Zero with no enemy in sight.
	ChanceToHit     float64
	RepositionBelow float64
}

type rule struct {
	name    string
	src     string
	action  Action
	program *vm.Program
}

// Doctrine is a compiled, ordered rule list. The first rule whose condition
// holds and whose action can be carried out decides a unit's next command.
type Doctrine struct {
	Name            string
	repositionBelow float64
	rules           []rule
}

func Compile(d tuning.Doctrine) (*Doctrine, error) {
	out := &Doctrine{Name: d.Name, repositionBelow: d.RepositionBelow}
	for _, r := range d.Rules {
		a := Action(r.Action)
		if !a.valid() {
			return nil, fmt.Errorf("rule %q: unknown action %q", r.Name, r.Action)
		}
		prog, err := expr.Compile(r.When, expr.Env(Env{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		out.rules = append(out.rules, rule{name: r.Name, src: r.When, action: a, program: prog})
	}
	return out, nil
}

// MustDefault compiles the built-in doctrine, which is known to be valid.
func MustDefault() *Doctrine {
	d, err := Compile(tuning.DefaultDoctrine())
	if err != nil {
		panic(err)
	}
	return d
}

// matching lists the actions whose conditions hold, in rule order.
func (d *Doctrine) matching(env Env) ([]Action, error) {
	var out []Action
	for _, r := range d.rules {
		res, err := vm.Run(r.program, env)
		if err != nil {
			return out, fmt.Errorf("rule %q: %w", r.name, err)
		}
		if ok, _ := res.(bool); ok {
			out = append(out, r.action)
		}
	}
	return out, nil
}
