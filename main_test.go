package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommatize(t *testing.T) {
	cases := map[int]string{
		0:       "0",
		999:     "999",
		1000:    "1,000",
		1234567: "1,234,567",
	}
	for n, want := range cases {
		assert.Equal(t, want, commatize(n))
	}
}

func TestIsAudioFile(t *testing.T) {
	assert.True(t, isAudioFile("/music/a.mp3"))
	assert.True(t, isAudioFile("/music/a.FLAC"))
	assert.True(t, isAudioFile("/music/a.m4a"))
	assert.False(t, isAudioFile("/music/cover.jpg"))
	assert.False(t, isAudioFile("/music/noext"))
}
