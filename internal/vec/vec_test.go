package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFaceOpposite(t *testing.T) {
	for _, f := range Faces {
		assert.Equal(t, f, f.Opposite().Opposite())
		assert.NotEqual(t, f, f.Opposite())
		assert.Equal(t, f.Axis(), f.Opposite().Axis())
		assert.NotEqual(t, f.Positive(), f.Opposite().Positive())
	}
	assert.Equal(t, FaceUp, FaceDown.Opposite())
	assert.Equal(t, FaceEast, FaceWest.Opposite())
}

func TestParseFace(t *testing.T) {
	f, ok := ParseFace(" North ")
	require.True(t, ok)
	assert.Equal(t, FaceNorth, f)

	_, ok = ParseFace("sideways")
	assert.False(t, ok)
}

func TestVec3ChunkCoords(t *testing.T) {
	v := Vec3{X: -1, Y: 17, Z: 31}
	assert.Equal(t, Vec3{X: -1, Y: 1, Z: 1}, v.ToChunkCoords())
	assert.Equal(t, Vec3{X: 15, Y: 1, Z: 15}, v.LocalInChunk())
	assert.Equal(t, Vec3{X: -1, Y: 18, Z: 31}, v.Offset(FaceUp))
}

func TestParseVec3(t *testing.T) {
	v, err := ParseVec3("1, -2,3")
	require.NoError(t, err)
	assert.Equal(t, Vec3{X: 1, Y: -2, Z: 3}, v)
	assert.Equal(t, "1,-2,3", v.String())

	_, err = ParseVec3("1,2")
	assert.Error(t, err)

	f, err := ParseVec3Float("0.5,1,-0.25")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, f.Sub(Vec3Float{X: 0.5, Y: 0, Z: -0.25}).Length(), 1e-9)
}
