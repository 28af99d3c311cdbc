package watch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(path string, op Op) Event {
	return Event{Path: path, Op: op, Time: time.Now()}
}

func collectBatch(t *testing.T, d *Debouncer) []Event {
	t.Helper()
	select {
	case batch := <-d.Batches():
		return batch
	case <-time.After(time.Second):
		t.Fatal("no batch within a second")
		return nil
	}
}

func TestDebouncer_CreateThenModifyStaysCreate(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Close()

	d.Add(event("a.txt", OpCreate))
	d.Add(event("a.txt", OpModify))

	batch := collectBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, OpCreate, batch[0].Op)
}

func TestDebouncer_CreateThenDeleteCancelsOut(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Close()

	d.Add(event("a.txt", OpCreate))
	d.Add(event("a.txt", OpDelete))
	d.Add(event("b.txt", OpModify))

	batch := collectBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, "b.txt", batch[0].Path)
}

func TestDebouncer_ModifyThenDeleteBecomesDelete(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Close()

	d.Add(event("a.txt", OpModify))
	d.Add(event("a.txt", OpDelete))

	batch := collectBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, OpDelete, batch[0].Op)
}

func TestDebouncer_DeleteThenCreateBecomesModify(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Close()

	d.Add(event("a.txt", OpDelete))
	d.Add(event("a.txt", OpCreate))

	batch := collectBatch(t, d)
	require.Len(t, batch, 1)
	assert.Equal(t, OpModify, batch[0].Op)
}

func TestDebouncer_QuietWindowRestartsOnActivity(t *testing.T) {
	d := NewDebouncer(60 * time.Millisecond)
	defer d.Close()

	d.Add(event("a.txt", OpModify))
	time.Sleep(30 * time.Millisecond)
	d.Add(event("b.txt", OpModify))

	// Still inside the restarted window: nothing emitted yet.
	select {
	case <-d.Batches():
		t.Fatal("batch emitted before the quiet window elapsed")
	case <-time.After(40 * time.Millisecond):
	}

	batch := collectBatch(t, d)
	assert.Len(t, batch, 2)
}

func TestDebouncer_SeparatePathsKeepSeparateEvents(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	defer d.Close()

	d.Add(event("a.txt", OpCreate))
	d.Add(event("b.txt", OpDelete))

	batch := collectBatch(t, d)
	ops := make(map[string]Op, len(batch))
	for _, e := range batch {
		ops[e.Path] = e.Op
	}
	assert.Equal(t, map[string]Op{"a.txt": OpCreate, "b.txt": OpDelete}, ops)
}

func TestDebouncer_CloseIsIdempotentAndDropsPending(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)

	d.Add(event("a.txt", OpCreate))
	d.Close()
	d.Close()

	// Add after close is a no-op.
	d.Add(event("b.txt", OpCreate))

	_, open := <-d.Batches()
	assert.False(t, open)
}
