package mux

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFirstSampleMustBeKeyFrame(t *testing.T) {
	var tr TimestampTracker
	_, err := tr.Normalize(1000, false, false, true)
	require.Error(t, err)
}

func TestIsobmffRequiresZeroStart(t *testing.T) {
	var tr TimestampTracker
	_, err := tr.Normalize(5000, true, false, true)
	require.Error(t, err)

	var tr2 TimestampTracker
	ts, err := tr2.Normalize(0, true, false, true)
	require.NoError(t, err)
	require.EqualValues(t, 0, ts)
}

func TestOffsetAllowedShiftsToZero(t *testing.T) {
	var tr TimestampTracker
	ts, err := tr.Normalize(123456, true, true, true)
	require.NoError(t, err)
	require.EqualValues(t, 0, ts)

	ts2, err := tr.Normalize(123456+2000, false, true, true)
	require.NoError(t, err)
	require.EqualValues(t, 2000, ts2)
}

func TestRejectsRewindAtKeyFrame(t *testing.T) {
	var tr TimestampTracker
	_, err := tr.Normalize(0, true, false, true)
	require.NoError(t, err)
	_, err = tr.Normalize(5000, false, false, true)
	require.NoError(t, err)
	_, err = tr.Normalize(1000, true, false, true)
	require.Error(t, err)
}

func TestRejectsDeltaBeforeLastKeyFrame(t *testing.T) {
	var tr TimestampTracker
	_, err := tr.Normalize(1000, true, false, true)
	require.NoError(t, err)
	_, err = tr.Normalize(500, false, false, true)
	require.Error(t, err)
}

func TestMkvAllowsNonZeroStart(t *testing.T) {
	var tr TimestampTracker
	ts, err := tr.Normalize(7000, true, false, false)
	require.NoError(t, err)
	require.EqualValues(t, 7000, ts)
}
