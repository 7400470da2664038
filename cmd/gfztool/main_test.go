package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/gfztool/internal/config"
	"github.com/Faultbox/gfztool/pkg/formats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModel(t *testing.T, dir, name string) string {
	t.Helper()
	data := make([]byte, formats.ModelHeaderSize+formats.CollisionTriangleSize)
	copy(data, formats.ModelMagic)
	binary.BigEndian.PutUint32(data[0x14:], math.Float32bits(2.5))
	binary.BigEndian.PutUint32(data[0x2C:], formats.ModelHeaderSize)
	binary.BigEndian.PutUint32(data[0x30:], 1)

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), config.Default(), args, &out)
	return out.String(), err
}

func TestInfo(t *testing.T) {
	path := writeModel(t, t.TempDir(), "a.gma")

	out, err := runCmd(t, "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Magic:      GCMF")
	assert.Contains(t, out, "Radius:     2.500")
	assert.Contains(t, out, "Collision:  1 triangles")
	assert.Contains(t, out, "CollisionTriangle")
}

func TestTree(t *testing.T) {
	path := writeModel(t, t.TempDir(), "a.gma")

	out, err := runCmd(t, "tree", path)
	require.NoError(t, err)
	assert.Equal(t, "ModelHeader [0x00000000, 0x00000040) r-\n  CollisionTriangle [0x00000040, 0x00000098) rw\n", out)
}

func TestDump(t *testing.T) {
	path := writeModel(t, t.TempDir(), "a.gma")

	out, err := runCmd(t, "dump", "-kind", "CollisionTriangle", path)
	require.NoError(t, err)
	assert.Contains(t, out, "#1 CollisionTriangle @ 0x00000040")
	assert.Contains(t, out, "PlaneDot")
	assert.NotContains(t, out, "ModelHeader")
}

func TestVerifyAndExport(t *testing.T) {
	dir := t.TempDir()
	path := writeModel(t, dir, "a.gma")

	out, err := runCmd(t, "verify", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 writable records checked, 0 mismatched")

	dst := filepath.Join(dir, "out.gma")
	_, err = runCmd(t, "export", path, dst)
	require.NoError(t, err)

	want, _ := os.ReadFile(path)
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "a.gma")
	writeModel(t, dir, "b.gma")

	out, err := runCmd(t, "batch", "-verify", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "2 files, 0 failed, 0 mismatched, 4 records")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.gma"), []byte("junk"), 0644))
	out, err = runCmd(t, "batch", dir)
	assert.Error(t, err)
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "3 files, 1 failed")
}

func TestRunErrors(t *testing.T) {
	_, err := runCmd(t, "nope")
	assert.Error(t, err)

	_, err = runCmd(t, "info")
	assert.Error(t, err)

	_, err = runCmd(t, "info", filepath.Join(t.TempDir(), "missing.gma"))
	assert.Error(t, err)
}
