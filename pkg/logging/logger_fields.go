package logging

import "time"

func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Strings(key string, values []string) Field {
	return Field{Key: key, Value: values}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Float64 is used for probabilities and impacts.
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// Duration renders d in Go duration syntax, e.g. "1.5ms".
func Duration(key string, d time.Duration) Field {
	return Field{Key: key, Value: d.String()}
}

// Error records err.Error() under "error"; a nil error gives a nil value.
func Error(err error) Field {
	f := Field{Key: "error"}
	if err != nil {
		f.Value = err.Error()
	}
	return f
}

// Component names the stage that emitted the message: "dag", "cpt",
// "inference", "analysis" or "pipeline".
func Component(name string) Field { return String("component", name) }

func NodeID(id string) Field { return String("node_id", id) }

// Edge formats an edge the same way network.Edge.String does.
func Edge(from, relation, to string) Field {
	return String("edge", from+" -"+relation+"-> "+to)
}

func RunID(id string) Field { return String("run_id", id) }

func Operation(op string) Field { return String("operation", op) }

func Latency(d time.Duration) Field { return Duration("latency", d) }

func Count(n int) Field { return Int("count", n) }
