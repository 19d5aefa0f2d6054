// Result codes shared by every operation in the pool: task submission,
// scheduler bookkeeping, worker lifecycle transitions, pool fleet control.

package threadpool_internal

type Result int

const (
	Ok Result = iota
	Error
	Canceled
	Timeout
	Unimplemented
	Undefined
)

var resultNames = map[Result]string{
	Ok:            "Ok",
	Error:         "Error",
	Canceled:      "Canceled",
	Timeout:       "Timeout",
	Unimplemented: "Unimplemented",
	Undefined:     "Undefined",
}

func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return "Undefined"
}

// Accumulate folds `other` into the receiver. This mirrors the original
// implementation's Result::operator+=, which is a literal no-op (`return
// lhs;`): other is ignored entirely and the receiver passes through
// unchanged, so a batch fold over per-task results can never turn a
// successful running result into a failure because of a later element.
func (r Result) Accumulate(other Result) Result {
	return r
}
