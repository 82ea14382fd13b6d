package vm

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"tacc/pkg/asm"
	"tacc/pkg/compiler"
)

// humanReadableState is the JSON-serializable snapshot of machine state.
// Numbers are kept in listing notation so ints and floats survive the trip.
type humanReadableState struct {
	PC     int               `json:"pc"`
	Steps  int               `json:"steps"`
	Halted bool              `json:"halted"`
	Error  string            `json:"error,omitempty"`
	Regs   map[string]string `json:"regs"`
	Vars   map[string]string `json:"vars"`
	Cmp    []string          `json:"cmp,omitempty"`
}

func (m *Machine) state() humanReadableState {
	st := humanReadableState{
		PC:     m.PC,
		Steps:  m.Steps,
		Halted: m.Halted,
		Regs:   make(map[string]string, len(m.Regs)),
		Vars:   make(map[string]string, len(m.Vars)),
	}
	if m.Err != nil {
		st.Error = m.Err.Error()
	}
	for r, v := range m.Regs {
		st.Regs[r.String()] = v.String()
	}
	for name, v := range m.Vars {
		st.Vars[name] = v.String()
	}
	if m.cmpValid {
		st.Cmp = []string{m.CmpA.String(), m.CmpB.String()}
	}
	return st
}

// Snapshot returns an indented JSON document of the program counter,
// registers and variables.
func (m *Machine) Snapshot() ([]byte, error) {
	data, err := json.MarshalIndent(m.state(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal machine_state: %w", err)
	}
	return data, nil
}

// VarNames returns the bound variable names in sorted order.
func (m *Machine) VarNames() []string {
	names := make([]string, 0, len(m.Vars))
	for name := range m.Vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HibernateToBytes packs the program listing and the machine state into an
// in-memory ZIP archive.
func (m *Machine) HibernateToBytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	if err := writeZipEntry(zw, "program.tac", []byte(m.Program.String())); err != nil {
		return nil, err
	}
	state, err := m.Snapshot()
	if err != nil {
		return nil, err
	}
	if err := writeZipEntry(zw, "machine_state.json", state); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// RestoreFromBytes rebuilds a Machine from an archive produced by
// HibernateToBytes. The listing is re-read and re-checked.
func RestoreFromBytes(data []byte) (*Machine, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	fileMap := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		fileMap[f.Name] = f
	}

	src, err := readZipEntry(fileMap, "program.tac")
	if err != nil {
		return nil, err
	}
	program, err := asm.Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("program.tac: %w", err)
	}

	jsonData, err := readZipEntry(fileMap, "machine_state.json")
	if err != nil {
		return nil, err
	}
	var st humanReadableState
	if err := json.Unmarshal(jsonData, &st); err != nil {
		return nil, fmt.Errorf("unmarshal machine_state: %w", err)
	}

	m, err := New(program, nil)
	if err != nil {
		return nil, err
	}
	if st.PC < 0 || st.PC > len(program) {
		return nil, fmt.Errorf("pc %d outside program of %d instructions", st.PC, len(program))
	}
	m.PC = st.PC
	m.Steps = st.Steps
	m.Halted = st.Halted
	if st.Error != "" {
		m.Err = errors.New(st.Error)
	}

	for name, text := range st.Regs {
		r, err := parseRegisterName(name)
		if err != nil {
			return nil, err
		}
		if m.Regs[r], err = parseValue(text); err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
	}
	for name, text := range st.Vars {
		if m.Vars[name], err = parseValue(text); err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
	}
	if len(st.Cmp) == 2 {
		if m.CmpA, err = parseValue(st.Cmp[0]); err != nil {
			return nil, err
		}
		if m.CmpB, err = parseValue(st.Cmp[1]); err != nil {
			return nil, err
		}
		m.cmpValid = true
	}
	return m, nil
}

// HibernateToFile writes the hibernation archive to path.
func (m *Machine) HibernateToFile(path string) error {
	data, err := m.HibernateToBytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RestoreFromFile reads a hibernation archive from path.
func RestoreFromFile(path string) (*Machine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return RestoreFromBytes(data)
}

func parseRegisterName(s string) (compiler.Register, error) {
	if len(s) < 2 || s[0] != 'R' {
		return 0, fmt.Errorf("invalid register %q", s)
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid register %q", s)
	}
	return compiler.Register(n), nil
}

// parseValue reads a number in listing notation. Non-finite floats are
// written without a '.', so fall back to ParseFloat for those.
func parseValue(s string) (compiler.Number, error) {
	if n, err := compiler.ParseNumber(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return compiler.Number{}, fmt.Errorf("invalid number %q", s)
	}
	return compiler.FloatNumber(f), nil
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %q: %w", name, err)
	}
	_, err = w.Write(data)
	return err
}

func readZipEntry(fileMap map[string]*zip.File, name string) ([]byte, error) {
	f, ok := fileMap[name]
	if !ok {
		return nil, fmt.Errorf("zip entry %q not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip entry %q: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
