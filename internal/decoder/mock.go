package decoder

import "sync"

// Mock is a test double for Decoder that returns canned output and records
// every path it was asked to decode.
//
// An empty path fails the same way it does for Engine, so command tests can
// observe the DecodeFailure path without a real binary.
type Mock struct {
	mu sync.Mutex

	// Canned responses
	JSONOut        string
	DOTOut         string
	SourceFilesOut string
	AssemblyOut    string

	// DecodeErr, when set, is the cause of every non-empty Decode failure.
	DecodeErr error

	decoded []string
	current string
}

var _ Decoder = (*Mock)(nil)

// NewMock creates a mock answering every query with the given JSON.
func NewMock(json string) *Mock {
	return &Mock{
		JSONOut:        json,
		DOTOut:         "digraph g {\n}\n\n",
		SourceFilesOut: "[]",
		AssemblyOut:    "[]",
	}
}

func (m *Mock) Decode(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.decoded = append(m.decoded, path)
	m.current = ""
	if path == "" {
		return &DecodeError{Err: ErrEmptyPath}
	}
	if m.DecodeErr != nil {
		return &DecodeError{Path: path, Err: m.DecodeErr}
	}
	m.current = path
	return nil
}

// Decoded returns the paths passed to Decode, in call order.
func (m *Mock) Decoded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.decoded...)
}

// Current returns the path of the artifact queries answer for.
func (m *Mock) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Mock) answer(out string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == "" {
		return "", ErrNotDecoded
	}
	return out, nil
}

func (m *Mock) JSON() (string, error)        { return m.answer(m.JSONOut) }
func (m *Mock) DOT() (string, error)         { return m.answer(m.DOTOut) }
func (m *Mock) SourceFiles() (string, error) { return m.answer(m.SourceFilesOut) }
func (m *Mock) Assembly() (string, error)    { return m.answer(m.AssemblyOut) }
