package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel-bot/internal/models"
)

func TestFlowSteps(t *testing.T) {
	budget := newFlow(models.CommandBudget)
	custom := newFlow(models.CommandCustom)

	assert.Len(t, budget.steps, 8)
	assert.Len(t, custom.steps, 12)
	assert.False(t, budget.has(models.StateMinPrice))
	assert.True(t, custom.has(models.StateMaxDistance))
	assert.True(t, budget.has(models.StateSearching))
	assert.False(t, budget.has(models.StateRecordsNumber))
}

func TestFlowTransitions(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		cmd   models.Command
		from  models.State
		event string
		want  models.State
	}{
		{"budget skips custom windows", models.CommandBudget, models.StateConfirmCity, eventNext, models.StateCheckIn},
		{"custom asks for prices", models.CommandCustom, models.StateConfirmCity, eventNext, models.StateMinPrice},
		{"custom distance to dates", models.CommandCustom, models.StateMaxDistance, eventNext, models.StateCheckIn},
		{"another city", models.CommandLuxury, models.StateConfirmCity, eventBack, models.StateInputCity},
		{"no photos", models.CommandLuxury, models.StatePhotosDisplay, eventSearch, models.StateSearching},
		{"with photos", models.CommandCustom, models.StatePhotosAmount, eventSearch, models.StateSearching},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newFlow(tt.cmd).transition(ctx, tt.from, tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlowRejectsUnknownEdge(t *testing.T) {
	f := newFlow(models.CommandBudget)

	got, err := f.transition(context.Background(), models.StateTravellers, eventBack)
	assert.Error(t, err)
	assert.Equal(t, models.StateTravellers, got)

	_, err = f.transition(context.Background(), models.StatePhotosAmount, eventNext)
	assert.Error(t, err)
}

func TestMenuCommands(t *testing.T) {
	var names []models.Command
	for _, c := range MenuCommands() {
		names = append(names, c.Command)
	}
	assert.Equal(t, []models.Command{
		models.CommandHelp, models.CommandBudget, models.CommandLuxury, models.CommandCustom, models.CommandHistory,
	}, names)
}

func TestCityData(t *testing.T) {
	id, ok := parseCityData(CityData("6046"))
	assert.True(t, ok)
	assert.Equal(t, "6046", id)

	_, ok = parseCityData(CityOtherData)
	assert.False(t, ok)
	_, ok = parseCityData("cal:n")
	assert.False(t, ok)
	_, ok = parseCityData(CityData(""))
	assert.False(t, ok)
}
