package ledger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/agentblame/agentblame/agentblame/pkg/logger"
)

const ledgersFile = "ledgers.jsonl"

// Store persists ledgers as JSONL keyed by commit sha. The file is
// append-only in normal operation; on read, later entries for the same
// commit replace earlier ones. Remap rewrites the file in place.
type Store struct {
	dir    string
	logger logger.Logger
}

func NewStore(dir string, log logger.Logger) *Store {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Store{dir: dir, logger: log}
}

// Get returns the ledger for a commit, or nil.
func (s *Store) Get(commitSHA string) *Ledger {
	return s.Load()[commitSHA]
}

// Load reads all ledgers keyed by commit sha, last write wins.
func (s *Store) Load() map[string]*Ledger {
	res := map[string]*Ledger{}
	for _, l := range s.loadAll() {
		res[l.CommitSHA] = l
	}
	return res
}

// Append persists a ledger.
func (s *Store) Append(l *Ledger) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(l)
	if err != nil {
		return err
	}
	_, err = f.Write(append(b, '\n'))
	return err
}

// Remap rewrites commit and parent shas after a history rewrite. The
// mapping is applied in one pass against the shas as stored, never
// chained, which makes running the same mapping twice a no-op. Returns
// the number of ledgers whose commit sha changed.
func (s *Store) Remap(oldToNew map[string]string) (int, error) {
	if len(oldToNew) == 0 {
		return 0, nil
	}
	all := s.loadAll()
	if len(all) == 0 {
		return 0, nil
	}

	remapped := 0
	for _, l := range all {
		if newSHA, ok := oldToNew[l.CommitSHA]; ok && newSHA != l.CommitSHA {
			l.CommitSHA = newSHA
			remapped++
		}
		if newSHA, ok := oldToNew[l.ParentSHA]; ok && l.ParentSHA != "" {
			l.ParentSHA = newSHA
		}
	}
	if remapped == 0 {
		return 0, nil
	}

	tmp := s.path() + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, err
	}
	w := bufio.NewWriter(f)
	for _, l := range all {
		b, err := json.Marshal(l)
		if err != nil {
			f.Close()
			return 0, err
		}
		w.Write(b)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp, s.path()); err != nil {
		return 0, err
	}
	return remapped, nil
}

func (s *Store) path() string {
	return filepath.Join(s.dir, ledgersFile)
}

func (s *Store) loadAll() []*Ledger {
	f, err := os.Open(s.path())
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Debug("cannot open ledgers file", "err", err)
		}
		return nil
	}
	defer f.Close()

	var res []*Ledger
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || !gjson.ValidBytes(line) {
			continue
		}
		var l Ledger
		if err := json.Unmarshal(line, &l); err != nil {
			s.logger.Debug("skipping malformed ledger record", "err", err)
			continue
		}
		if l.CommitSHA == "" {
			continue
		}
		cp := l
		res = append(res, &cp)
	}
	return res
}
