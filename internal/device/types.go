// Package device holds the device and sensor model returned by the API.
package device

// Device is a physical or logical source of data with nested sensors
type Device struct {
	Key        string            `json:"key"`
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes"`
	Sensors    []Sensor          `json:"sensors"`
}

// Sensor is a single data stream of a device
type Sensor struct {
	Key        string            `json:"key"`
	Name       string            `json:"name"`
	Attributes map[string]string `json:"attributes"`
}

// Sensor returns the sensor with the given key
func (d *Device) Sensor(key string) (Sensor, bool) {
	for _, s := range d.Sensors {
		if s.Key == key {
			return s, true
		}
	}
	return Sensor{}, false
}
