package nutrition

// Journal collects the metabolic adjustment log for one generation run and
// forwards human-readable status messages to an optional progress callback.
// It is not safe for concurrent use; each request owns its own Journal.
type Journal struct {
	entries  []string
	progress func(string)
}

// NewJournal creates a journal. progress may be nil.
func NewJournal(progress func(string)) *Journal {
	return &Journal{progress: progress}
}

// Record appends a decision to the metabolic log and reports it as progress.
func (j *Journal) Record(msg string) {
	j.entries = append(j.entries, msg)
	j.Progress(msg)
}

// Progress reports a status message without recording it in the log.
func (j *Journal) Progress(msg string) {
	if j.progress != nil {
		j.progress(msg)
	}
}

// Entries returns a copy of the metabolic log in insertion order.
func (j *Journal) Entries() []string {
	out := make([]string, len(j.entries))
	copy(out, j.entries)
	return out
}
