package journal

// Tee fans writes out to several journals. Reads come from the first journal,
// which is the in-memory ring in the usual wiring.
type Tee []Journal

func (t Tee) Record(e Entry) error {
	var firstErr error
	for _, j := range t {
		if err := j.Record(e); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (t Tee) Recent(n int) ([]Entry, error) {
	if len(t) == 0 {
		return nil, nil
	}
	return t[0].Recent(n)
}

func (t Tee) Close() error {
	var firstErr error
	for _, j := range t {
		if err := j.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
