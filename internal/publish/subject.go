package publish

import (
	"strings"
)

// ToNATSSubject converts an MQTT style topic to a NATS subject.
// MQTT uses / as separators and +/# as wildcards,
// NATS uses . as separators and */> as wildcards.
func ToNATSSubject(topic string) string {
	subject := strings.ReplaceAll(topic, "+", "*")
	subject = strings.ReplaceAll(subject, "#", ">")
	return strings.ReplaceAll(subject, "/", ".")
}

var subjectReplacer = strings.NewReplacer(
	" ", "_",
	",", "_",
	":", "_",
	"?", "_",
	"[", "_",
	"]", "_",
)

// NormalizeSubject replaces characters NATS does not accept in subjects
func NormalizeSubject(subject string) string {
	return subjectReplacer.Replace(subject)
}

var topicKeyReplacer = strings.NewReplacer(
	"/", "_",
	"+", "_",
	"#", "_",
	".", "_",
	"*", "_",
	">", "_",
)

// RenderTopic fills the {key} placeholder of a topic template. MQTT and
// NATS separator and wildcard characters in the key are replaced so the
// key stays a single level or token under either driver.
func RenderTopic(template, key string) string {
	return strings.ReplaceAll(template, "{key}", topicKeyReplacer.Replace(key))
}
