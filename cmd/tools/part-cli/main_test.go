package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cli(t *testing.T, dir string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, run(append([]string{"-data", dir}, args...), &out), out.String())
	return out.String()
}

func TestPlaceInspectRemove(t *testing.T) {
	dir := t.TempDir()

	cli(t, dir, "-cmd", "place", "-pos", "1,64,1", "-slot", "down", "-state", "cover[face=down,material=stone]")
	cli(t, dir, "-cmd", "add", "-pos", "1,64,1", "-slot", "center", "-state", "lamp[lit=false]")

	out := cli(t, dir, "-cmd", "inspect", "-pos", "1,64,1")
	assert.Contains(t, out, "multipart:container")
	assert.Contains(t, out, "cover[face=down,material=stone]")
	assert.Contains(t, out, "lamp[lit=false]")

	out = cli(t, dir, "-cmd", "list")
	assert.Equal(t, 1, strings.Count(out, "\n"))

	cli(t, dir, "-cmd", "remove", "-pos", "1,64,1", "-slot", "center")
	cli(t, dir, "-cmd", "remove", "-pos", "1,64,1", "-slot", "down")
	assert.Empty(t, cli(t, dir, "-cmd", "list"))
}

func TestAddDryRunDoesNotPersist(t *testing.T) {
	dir := t.TempDir()
	cli(t, dir, "-cmd", "place", "-pos", "0,0,0", "-slot", "up", "-state", "cover[face=up,material=glass]")

	out := cli(t, dir, "-cmd", "add", "-dry", "-pos", "0,0,0", "-slot", "center", "-state", "lamp[lit=true]")
	assert.Contains(t, out, "помещается")
	assert.NotContains(t, cli(t, dir, "-cmd", "inspect", "-pos", "0,0,0"), "lamp")

	var buf bytes.Buffer
	err := run([]string{"-data", dir, "-cmd", "add", "-pos", "0,0,0", "-slot", "up", "-state", "cover[face=up,material=stone]"}, &buf)
	assert.Error(t, err, "слот занят")
}

func TestLeverToggleLightsLamp(t *testing.T) {
	dir := t.TempDir()
	cli(t, dir, "-cmd", "place", "-pos", "0,0,0", "-slot", "center", "-state", "lamp[lit=false]")
	cli(t, dir, "-cmd", "place", "-pos", "1,0,0", "-slot", "west", "-state", "lever[face=west,powered=false]")

	out := cli(t, dir, "-cmd", "toggle", "-pos", "1,0,0", "-slot", "west")
	assert.Contains(t, out, "powered=true")

	out = cli(t, dir, "-cmd", "query", "-pos", "0,0,0")
	assert.Contains(t, out, "light:       15")
}

func TestRayTraceAndBreak(t *testing.T) {
	dir := t.TempDir()
	cli(t, dir, "-cmd", "place", "-pos", "0,0,0", "-slot", "down", "-state", "cover[face=down,material=stone]")
	cli(t, dir, "-cmd", "add", "-pos", "0,0,0", "-slot", "up", "-state", "cover[face=up,material=glass]")

	out := cli(t, dir, "-cmd", "raytrace", "-pos", "0,0,0", "-from", "0.5,2,0.5", "-to", "0.5,-1,0.5")
	assert.Contains(t, out, "слот up")

	out = cli(t, dir, "-cmd", "break", "-pos", "0,0,0", "-from", "0.5,2,0.5", "-to", "0.5,-1,0.5")
	assert.Contains(t, out, "cover:glass")

	out = cli(t, dir, "-cmd", "inspect", "-pos", "0,0,0")
	assert.NotContains(t, out, "glass")
	assert.Contains(t, out, "stone")
}

func TestUnknownCommandAndSlot(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	assert.Error(t, run([]string{"-data", dir, "-cmd", "explode", "-pos", "0,0,0"}, &buf))
	assert.Error(t, run([]string{"-data", dir, "-cmd", "remove", "-pos", "0,0,0", "-slot", "nowhere"}, &buf))
	assert.Error(t, run([]string{"-data", dir, "-cmd", "inspect", "-pos", "nope"}, &buf))
}
