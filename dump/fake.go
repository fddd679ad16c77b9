package dump

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Fake is an in-memory Backend for tests with failure-injection counters.
type Fake struct {
	mu sync.Mutex

	FailExport int
	FailImport int
	FailPing   int

	// PartialExport makes failing exports write some bytes before erroring,
	// to exercise truncated-artifact cleanup.
	PartialExport bool

	contents map[string][]byte
	Imported map[string][]byte
}

var _ Backend = (*Fake)(nil)

func NewFake() *Fake {
	return &Fake{
		contents: map[string][]byte{},
		Imported: map[string][]byte{},
	}
}

// SetContent sets the bytes Export produces for database.
func (f *Fake) SetContent(database string, content []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contents[database] = content
}

func (f *Fake) Export(_ context.Context, database, _, _ string, w io.Writer) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailExport > 0 {
		f.FailExport--
		if f.PartialExport {
			_, _ = w.Write([]byte("-- truncated "))
		}
		return fmt.Errorf("injected export failure")
	}

	content, ok := f.contents[database]
	if !ok {
		content = []byte(fmt.Sprintf("-- dump of %s\n", database))
	}
	_, err := w.Write(content)
	return err
}

func (f *Fake) Import(_ context.Context, database, _, _ string, r io.Reader) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailImport > 0 {
		f.FailImport--
		return fmt.Errorf("injected import failure")
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.Imported[database] = content
	return nil
}

func (f *Fake) Ping(_ context.Context, _, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailPing > 0 {
		f.FailPing--
		return fmt.Errorf("injected ping failure")
	}
	return nil
}
