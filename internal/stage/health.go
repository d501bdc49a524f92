package stage

// Health reports whether a pipeline stage can run right now. Blocked stages
// carry a detail naming the missing tool or bad setting.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Ready constructs a Health record for a runnable stage.
func Ready(name string) Health {
	return Health{Name: name, Ready: true}
}

// Blocked constructs a Health record for a stage that cannot run.
func Blocked(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
