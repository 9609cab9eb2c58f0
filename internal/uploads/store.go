package uploads

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"post-assist-bot/internal/errs"

	"github.com/gin-gonic/gin"
)

type (
	// Store writes uploaded images once and serves them back by name.
	Store struct {
		dir     string
		allowed map[string]bool

		mu     sync.Mutex
		lastID int64
		now    func() time.Time
	}

	Stored struct {
		// millisecond timestamp, unique within the process
		ID int64
		// sanitized client file name
		Filename string
		// name on disk: <id>_<filename>
		Name string
	}
)

func NewStore(dir string, extensions []string) *Store {
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}
	return &Store{
		dir:     dir,
		allowed: allowed,
		now:     time.Now,
	}
}

func (s *Store) Dir() string {
	return s.dir
}

// Extension returns the lowercased extension of filename without the dot.
func Extension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

func (s *Store) Allowed(filename string) bool {
	return strings.Contains(filename, ".") && s.allowed[Extension(filename)]
}

// Save writes r under a fresh identifier. Nothing is written for an empty
// or disallowed file name.
func (s *Store) Save(filename string, r io.Reader) (Stored, error) {
	if strings.TrimSpace(filename) == "" {
		return Stored{}, &errs.ValidationError{Field: "image", Message: "no selected image file"}
	}
	if !s.Allowed(filename) {
		return Stored{}, &errs.ValidationError{Field: "image", Message: fmt.Sprintf("file type %q is not allowed", Extension(filename))}
	}

	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := filepath.Ext(base)
	stem := SecureFilename(strings.TrimSuffix(base, ext))
	if stem == "" {
		stem = "image"
	}
	clean := stem + strings.ToLower(ext)

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return Stored{}, &errs.StorageError{Op: "mkdir", Err: err}
	}

	id := s.nextID()
	name := fmt.Sprintf("%d_%s", id, clean)

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return Stored{}, &errs.StorageError{Op: "create", Err: err}
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return Stored{}, &errs.StorageError{Op: "write", Err: err}
	}
	if err := f.Close(); err != nil {
		return Stored{}, &errs.StorageError{Op: "close", Err: err}
	}

	return Stored{ID: id, Filename: clean, Name: name}, nil
}

// Path resolves a stored name to its file, refusing anything that is not
// a plain file inside the store directory.
func (s *Store) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", &errs.NotFoundError{Message: name}
	}

	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", &errs.NotFoundError{Message: name}
	}
	return path, nil
}

func (s *Store) nextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// SecureFilename keeps ascii letters, digits, '.', '_' and '-', turns
// whitespace and path separators into '_' and trims leading dots.
func SecureFilename(name string) string {
	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")

	b := strings.Builder{}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "._")
}

func Inject(key string, store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(key, store)
	}
}
