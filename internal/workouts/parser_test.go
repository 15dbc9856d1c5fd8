package workouts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"went for a jog", "Run"},
		{"ran around the park", "Run"},
		{"walked the dog", "Walk"},
		{"lifted weights", "Strength"},
		{"50 push-ups and some squats", "Strength"},
		{"did lunges", "Strength"},
		{"held a plank", "Core"},
		{"rode my bike to work", "Ride"},
		{"cycling class", "Ride"},
		{"swam laps", "Swim"},
		{"rowing machine", "Row"},
		{"morning yoga", "Yoga"},
		{"mobility work", "Mobility"},
		{"pilates session", "Pilates"},
		{"HIIT class", "HIIT"},
		{"played tennis", "Activity"},
		{"tomorrow maybe", "Activity"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text).Type)
		})
	}
}

func TestParseMinutes(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"ran for 35 minutes", 35},
		{"45 min spin class", 45},
		{"a 25-minute walk", 25},
		{"an hour of yoga", 60},
		{"half an hour on the bike", 30},
		{"an hour and a half hike", 90},
		{"1.5 hours of tennis", 90},
		{"1 hour 15 minutes ride", 75},
		{"ran 5k", 60},
		{"walked 2.5 miles", 30},
		{"ran 5k in 28 minutes", 28},
		{"did some squats", 20},
		{"", 20},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text).Minutes)
		})
	}
}

func TestParseIntensity(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"hard 30 minute run", IntensityHard},
		{"easy 60 minute ride", IntensityEasy},
		{"steady 15 min jog", IntensityModerate},
		{"90 minutes of yoga", IntensityEasy},
		{"walked for an hour", IntensityEasy},
		{"ran 15 minutes", IntensityEasy},
		{"ran 20 minutes", IntensityEasy},
		{"ran 35 minutes", IntensityModerate},
		{"ran 50 minutes", IntensityHard},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text).Intensity)
		})
	}
}

func TestParseDistance(t *testing.T) {
	p := Parse("Ran 10 km this morning")
	require.NotNil(t, p.Distance)
	assert.Equal(t, 10.0, p.Distance.Value)
	assert.Equal(t, "km", p.Distance.Unit)
	assert.Equal(t, 10.0, p.Distance.Km())
	assert.Equal(t, 120, p.Minutes)
	assert.Equal(t, IntensityHard, p.Intensity)

	mi := Parse("ran 3 miles")
	require.NotNil(t, mi.Distance)
	assert.Equal(t, "mi", mi.Distance.Unit)
	assert.Equal(t, 4.83, mi.Distance.Km())
	assert.Equal(t, 36, mi.Minutes)

	assert.Nil(t, Parse("ran for 30 minutes").Distance)
}

func TestParseAlwaysCompletes(t *testing.T) {
	inputs := []string{"", "   ", "0 minutes", "ran 0 km", "0.01 km", "???", "did a thing for 0.2 min"}
	for _, in := range inputs {
		p := Parse(in)
		assert.Greater(t, p.Minutes, 0, in)
		assert.Equal(t, StatusCompleted, p.Status, in)
		assert.NotEmpty(t, p.Type, in)
		assert.NotEmpty(t, p.Description, in)
	}
}

func TestParseKeepsDescription(t *testing.T) {
	p := Parse("  Lifted heavy for 40 min  ")
	assert.Equal(t, "Lifted heavy for 40 min", p.Description)
	assert.Equal(t, "Strength", p.Type)
	assert.Equal(t, IntensityHard, p.Intensity)
	assert.Equal(t, 40, p.Minutes)
}
