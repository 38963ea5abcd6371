package config

// EventsConfig configures the outbound event stream of spec.md §6: "On
// each API response the core calls an interceptor...". KafkaURL keeps the
// spec's env var name even though this module publishes over NATS — see
// DESIGN.md for why NATS stands in for the Kafka topic the original used.
type EventsConfig struct {
	KafkaURL string `mapstructure:"kafka_url"`
	Topic    string `mapstructure:"topic"`
}
