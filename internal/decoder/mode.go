package decoder

import "fmt"

// Mode selects how the root of a payload is interpreted. It is chosen by
// the caller per decode call and never inferred from the content.
type Mode int

const (
	// ModeDefault returns the decoded tree as is
	ModeDefault Mode = iota
	// ModeRuleList expects a JSON array of rule wrappers
	ModeRuleList
	// ModeKeyedRuleList expects {"data": [rule wrappers]}
	ModeKeyedRuleList
	// ModeRuleUsage folds {"data": [usage records]} into per-timestamp usage
	ModeRuleUsage
	// ModeDevice only recognizes devices and sensors
	ModeDevice
)

var modeNames = map[Mode]string{
	ModeDefault:       "default",
	ModeRuleList:      "rules",
	ModeKeyedRuleList: "keyed-rules",
	ModeRuleUsage:     "rule-usage",
	ModeDevice:        "device",
}

// String returns the mode name accepted by ParseMode
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode maps a mode name back to its Mode
func ParseMode(name string) (Mode, error) {
	for mode, n := range modeNames {
		if n == name {
			return mode, nil
		}
	}
	return ModeDefault, fmt.Errorf("unknown decode mode: %s", name)
}

// ModeNames lists the valid mode names in declaration order
func ModeNames() []string {
	names := make([]string, 0, len(modeNames))
	for m := ModeDefault; m <= ModeDevice; m++ {
		names = append(names, modeNames[m])
	}
	return names
}
