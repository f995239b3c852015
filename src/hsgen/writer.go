package hsgen

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// WriteInstance emits the header "n m c k" followed by one line per subset
// in emission order.
func WriteInstance(w io.Writer, inst *Instance) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d %d %d\n", inst.NumElements, len(inst.Subsets), inst.Width, inst.HintK)
	buf := make([]byte, 0, 64)
	for _, b := range inst.Subsets {
		buf = buf[:0]
		for i, e := range b {
			if i > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendInt(buf, int64(e), 10)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteHidden emits H on one line, followed by the contrast marker line for a
// contrast instance.
func WriteHidden(w io.Writer, h *HiddenSolution, contrast bool) error {
	if _, err := fmt.Fprintln(w, h.String()); err != nil {
		return err
	}
	if contrast {
		_, err := fmt.Fprintln(w, contrastMarker)
		return err
	}
	return nil
}

// SaveInstance writes inst to filename atomically: the data goes to a
// temporary file in the same directory, renamed into place only after a
// successful write and close. No partial file is ever left at filename.
func SaveInstance(filename string, inst *Instance) error {
	st, err := StageInstance(filename, inst)
	if err != nil {
		return err
	}
	return st.Commit()
}

func SaveHidden(filename string, h *HiddenSolution, contrast bool) error {
	st, err := StageHidden(filename, h, contrast)
	if err != nil {
		return err
	}
	return st.Commit()
}

// Staged is a fully written and closed temporary file that is not yet
// visible at its destination. Commit renames it into place, Discard removes
// it. Staging every file of a batch before committing any keeps a failed
// write from leaving part of the batch behind.
type Staged struct {
	tmp, dst string
}

func StageInstance(filename string, inst *Instance) (*Staged, error) {
	return stage(filename, func(w io.Writer) error {
		return WriteInstance(w, inst)
	})
}

func StageHidden(filename string, h *HiddenSolution, contrast bool) (*Staged, error) {
	return stage(filename, func(w io.Writer) error {
		return WriteHidden(w, h, contrast)
	})
}

func (st *Staged) Commit() error {
	if err := os.Rename(st.tmp, st.dst); err != nil {
		os.Remove(st.tmp)
		return err
	}
	return nil
}

func (st *Staged) Discard() {
	os.Remove(st.tmp)
}

func stage(filename string, write func(io.Writer) error) (_ *Staged, err error) {
	tmp, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".*.tmp")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		return nil, fmt.Errorf("writing %s: %w", filename, err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return nil, err
	}
	if err = tmp.Close(); err != nil {
		return nil, err
	}
	return &Staged{tmp: tmp.Name(), dst: filename}, nil
}
