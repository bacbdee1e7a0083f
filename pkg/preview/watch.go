package preview

import (
	"time"

	resume "github.com/goliatone/go-resume"
)

// Source is the subscription half of the history store.
type Source interface {
	Subscribe(fn func(resume.Document)) func()
}

// Watch renders the latest document once edits have been quiet for delay. It
// only reads from source. The returned stop function unsubscribes and drops
// any pending render.
func Watch(source Source, delay time.Duration, render func(resume.Document)) (stop func()) {
	if source == nil || render == nil {
		return func() {}
	}
	debouncer := NewDebouncer(delay)
	unsubscribe := source.Subscribe(func(doc resume.Document) {
		debouncer.Schedule(func() { render(doc) })
	})
	return func() {
		unsubscribe()
		debouncer.Stop()
	}
}
