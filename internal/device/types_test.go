package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviceSensorLookup(t *testing.T) {
	d := &Device{
		Key: "test-dev",
		Sensors: []Sensor{
			{Key: "vals", Name: "stuff"},
			{Key: "temp", Name: "temperature"},
		},
	}

	s, ok := d.Sensor("temp")
	assert.True(t, ok)
	assert.Equal(t, "temperature", s.Name)

	_, ok = d.Sensor("humidity")
	assert.False(t, ok)
}
