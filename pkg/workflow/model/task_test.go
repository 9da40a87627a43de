package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telatin/Koverage/pkg/workflow/model"
)

func validResources() model.Resources {
	return model.Resources{Threads: 4, MemMB: 8000, TimeMin: 120}
}

func TestNewTaskDescriptor(t *testing.T) {
	t.Parallel()

	task, err := model.NewTaskDescriptor(
		"map.S1",
		[]string{"asm.fasta", "S1_R1.fastq", "S1_R2.fastq"},
		[]string{"results/temp/S1.lib"},
		validResources(),
		model.TaskSample("S1"),
		model.TaskLog("results/logs/S1.map.log"),
	)
	require.NoError(t, err)
	assert.Equal(t, "map.S1", task.Name)
	assert.Equal(t, "S1", task.Sample)
	assert.Equal(t, "results/logs/S1.map.log", task.Log)
}

func TestNewTaskDescriptorEmptyName(t *testing.T) {
	t.Parallel()

	_, err := model.NewTaskDescriptor("", nil, nil, validResources())
	assert.ErrorIs(t, err, model.ErrTaskName)
}

func TestNewTaskDescriptorRejectsThreads(t *testing.T) {
	t.Parallel()

	for _, threads := range []int{0, -1, -8} {
		res := validResources()
		res.Threads = threads
		_, err := model.NewTaskDescriptor("map.S1", nil, nil, res)
		assert.ErrorIs(t, err, model.ErrThreads)
	}
}

func TestNewTaskDescriptorCopiesSlices(t *testing.T) {
	t.Parallel()

	inputs := []string{"a", "b"}
	task, err := model.NewTaskDescriptor("map.S1", inputs, nil, validResources())
	require.NoError(t, err)

	inputs[0] = "mutated"
	assert.Equal(t, "a", task.Inputs[0])
}

func TestResourcesValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, model.Resources{Threads: 1}.Validate())
	assert.ErrorIs(t, model.Resources{Threads: 1, MemMB: -1}.Validate(), model.ErrMemMB)
	assert.ErrorIs(t, model.Resources{Threads: 1, TimeMin: -1}.Validate(), model.ErrTimeMin)
}

func TestMapParamsValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, model.MapParams{MaxDepth: 300, BinWidth: 250}.Validate())
	assert.ErrorIs(t, model.MapParams{MaxDepth: 0, BinWidth: 250}.Validate(), model.ErrMaxDepth)
	assert.ErrorIs(t, model.MapParams{MaxDepth: 300, BinWidth: 0}.Validate(), model.ErrBinWidth)
}
