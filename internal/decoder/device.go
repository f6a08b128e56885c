package decoder

import (
	"fmt"

	"tempoiq/internal/device"
)

var deviceMatcher = Matcher{
	Name: "device",
	Match: func(obj map[string]interface{}) bool {
		return has(obj, "key") && has(obj, "name") && has(obj, "attributes") && has(obj, "sensors")
	},
	Build: decodeDevice,
}

var sensorMatcher = Matcher{
	Name: "sensor",
	Match: func(obj map[string]interface{}) bool {
		return has(obj, "key") && has(obj, "name") && has(obj, "attributes") && !has(obj, "sensors")
	},
	Build: func(obj map[string]interface{}) (interface{}, error) {
		return decodeSensor(obj)
	},
}

func decodeSensor(obj map[string]interface{}) (device.Sensor, error) {
	key, err := requiredString(obj, "key")
	if err != nil {
		return device.Sensor{}, err
	}
	name, err := optionalString(obj, "name", "")
	if err != nil {
		return device.Sensor{}, err
	}
	attrs, err := toStringMap(obj["attributes"], "attributes")
	if err != nil {
		return device.Sensor{}, err
	}
	return device.Sensor{Key: key, Name: name, Attributes: attrs}, nil
}

func decodeDevice(obj map[string]interface{}) (interface{}, error) {
	key, err := requiredString(obj, "key")
	if err != nil {
		return nil, err
	}
	name, err := optionalString(obj, "name", "")
	if err != nil {
		return nil, err
	}
	attrs, err := toStringMap(obj["attributes"], "attributes")
	if err != nil {
		return nil, err
	}

	items, err := optionalArray(obj, "sensors")
	if err != nil {
		return nil, err
	}
	sensors := make([]device.Sensor, 0, len(items))
	for i, item := range items {
		s, ok := item.(device.Sensor)
		if !ok {
			return nil, fieldError(fmt.Sprintf("sensors[%d]", i), "expected sensor, got %s", describe(item))
		}
		sensors = append(sensors, s)
	}

	return &device.Device{
		Key:        key,
		Name:       name,
		Attributes: attrs,
		Sensors:    sensors,
	}, nil
}
