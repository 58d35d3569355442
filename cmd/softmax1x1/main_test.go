package main

import (
	"testing"

	"github.com/born-ml/softmax1x1/softmax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRows(t *testing.T) {
	rows, err := parseRows("1, 2,3;4,5,6")
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2, 3}, {4, 5, 6}}, rows)

	_, err = parseRows("1,2;3")
	assert.Error(t, err)
	_, err = parseRows("1,x")
	assert.Error(t, err)
}

func TestOptionsBuild(t *testing.T) {
	o := options{precision: "f16", batch: true, scale: 2, relu: true, reluClip: 6}
	def, linked, err := o.build()
	require.NoError(t, err)
	assert.Equal(t, softmax.F16, def.Precision)
	assert.True(t, def.BatchSupport)
	require.Len(t, linked, 2)
	assert.Equal(t, &softmax.Scale{Multiplier: 2}, linked[0])
	assert.Equal(t, &softmax.ReLU{Clip: 6}, linked[1])

	o.precision = "f64"
	_, _, err = o.build()
	assert.Error(t, err)
}
