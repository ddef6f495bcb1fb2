package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTask_RewardAndDust(t *testing.T) {
	tests := []struct {
		amount  int64
		maxSubs int
		reward  int64
		dust    int64
	}{
		{1_000_000_000, 100, 10_000_000, 0},
		{1_000_000_001, 100, 10_000_000, 1},
		{10, 3, 3, 1},
		{5, 5, 1, 0},
		{7, 0, 0, 7},
	}
	for _, tt := range tests {
		task := &Task{Amount: tt.amount, MaximumSubmissions: tt.maxSubs}
		assert.Equal(t, tt.reward, task.Reward())
		assert.Equal(t, tt.dust, task.Dust())
		if tt.maxSubs > 0 {
			assert.Equal(t, tt.amount, task.Reward()*int64(tt.maxSubs)+task.Dust())
		}
	}
}

func TestTask_HasOption(t *testing.T) {
	task := &Task{Options: []Option{{ID: "a"}, {ID: "b"}}}
	assert.True(t, task.HasOption("b"))
	assert.False(t, task.HasOption("c"))
}

func TestEnums(t *testing.T) {
	assert.True(t, TaskTypeText.Valid())
	assert.True(t, TaskTypeImage.Valid())
	assert.False(t, TaskType("AUDIO").Valid())

	assert.False(t, PayoutStatusProcessing.IsTerminal())
	assert.True(t, PayoutStatusSuccess.IsTerminal())
	assert.True(t, PayoutStatusFailed.IsTerminal())
}
