package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Domain field helpers for the threat pipeline
func ThreatID(id string) Field {
	return String("threat_id", id)
}

func Component(name string) Field {
	return String("component", name)
}

func Source(tag string) Field {
	return String("source", tag)
}

func Score(value float64) Field {
	return Float64("score", value)
}

func Stage(name string) Field {
	return String("stage", name)
}

func ThreatCount(n int) Field {
	return Int("threat_count", n)
}

func RequestID(id string) Field {
	return String("request_id", id)
}
