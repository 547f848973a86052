package conversation

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"hotel-bot/internal/models"
)

const (
	eventNext   = "next"
	eventBack   = "back"
	eventSearch = "search"
)

// flow is the ordered step table of one search variant.
type flow struct {
	steps  []models.State
	events fsm.Events
}

func newFlow(cmd models.Command) *flow {
	steps := []models.State{models.StateInputCity, models.StateConfirmCity}
	if cmd == models.CommandCustom {
		steps = append(steps,
			models.StateMinPrice, models.StateMaxPrice,
			models.StateMinDistance, models.StateMaxDistance,
		)
	}
	steps = append(steps,
		models.StateCheckIn, models.StateCheckOut,
		models.StateTravellers, models.StateHotelsAmount,
		models.StatePhotosDisplay, models.StatePhotosAmount,
	)

	f := &flow{steps: steps}
	for i := 0; i < len(steps)-1; i++ {
		f.events = append(f.events, fsm.EventDesc{
			Name: eventNext,
			Src:  []string{string(steps[i])},
			Dst:  string(steps[i+1]),
		})
	}
	f.events = append(f.events,
		fsm.EventDesc{
			Name: eventBack,
			Src:  []string{string(models.StateConfirmCity)},
			Dst:  string(models.StateInputCity),
		},
		fsm.EventDesc{
			Name: eventSearch,
			Src:  []string{string(models.StatePhotosDisplay), string(models.StatePhotosAmount)},
			Dst:  string(models.StateSearching),
		},
	)
	return f
}

// transition returns the state reached from `from` by event, or an error if
// the variant has no such edge.
func (f *flow) transition(ctx context.Context, from models.State, event string) (models.State, error) {
	m := fsm.NewFSM(string(from), f.events, fsm.Callbacks{})
	if err := m.Event(ctx, event); err != nil {
		return from, fmt.Errorf("transition %s --%s-->: %w", from, event, err)
	}
	return models.State(m.Current()), nil
}

func (f *flow) has(s models.State) bool {
	for _, step := range f.steps {
		if step == s {
			return true
		}
	}
	return s == models.StateSearching
}

func flows() map[models.Command]*flow {
	return map[models.Command]*flow{
		models.CommandBudget: newFlow(models.CommandBudget),
		models.CommandLuxury: newFlow(models.CommandLuxury),
		models.CommandCustom: newFlow(models.CommandCustom),
	}
}
