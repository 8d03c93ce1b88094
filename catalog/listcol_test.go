package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListColumnRoundTrip(t *testing.T) {
	cases := [][]string{
		nil,
		{},
		{"one"},
		{"one", "two", "three"},
		{"", "empty string survives"},
		{`with "quotes"`, "with\nnewline", "with,comma"},
	}
	for _, in := range cases {
		out, err := decodeList(encodeList(in))
		require.NoError(t, err)
		if len(in) == 0 {
			// nil and empty both round-trip to the empty list
			assert.NotNil(t, out)
			assert.Empty(t, out)
			continue
		}
		assert.Equal(t, in, out)
	}
}

func TestListColumnEmptyIsNotMissing(t *testing.T) {
	// the encoded empty list is real bytes, distinct from "no row"
	assert.Equal(t, "[]", string(encodeList(nil)))
	assert.Equal(t, "[]", string(encodeList([]string{})))

	out, err := decodeList(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestListColumnRejectsGarbage(t *testing.T) {
	_, err := decodeList([]byte("not json"))
	assert.Error(t, err)
}

func TestTypedListRoundTrip(t *testing.T) {
	events := []LendEvent{
		{Kind: LendOut, Date: testClock, To: "sam"},
		{Kind: LendIn, Date: testClock.Add(24 * time.Hour)},
	}
	data, err := encodeJSONList(events)
	require.NoError(t, err)
	out, err := decodeJSONList[LendEvent](data)
	require.NoError(t, err)
	assert.Equal(t, events, out)

	empty, err := encodeJSONList[Purchase](nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}
