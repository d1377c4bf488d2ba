package aef

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/absfs/absfs"
	"github.com/google/uuid"
)

// Mode selects which pipeline a directory run applies to each eligible
// file (spec.md §6.3).
type Mode int

const (
	ModeEncrypt Mode = iota
	ModeDecrypt
)

// DriverOptions configures a directory-wide run.
type DriverOptions struct {
	FileOptions Options
	Recursive   bool
	Workers     int
	Logger      *slog.Logger
}

// DefaultDriverOptions mirrors the teacher's ParallelConfig defaults
// (parallel.go), scaled down since this module parallelizes whole files
// rather than chunks within one file.
func DefaultDriverOptions() DriverOptions {
	return DriverOptions{
		FileOptions: DefaultOptions(),
		Recursive:   false,
		Workers:     4,
		Logger:      slog.Default(),
	}
}

// FileResult reports the outcome of one file's encrypt or decrypt
// operation within a directory run.
type FileResult struct {
	SourcePath string
	OutputPath string
	Err        error
}

// walkFS lists the regular files under root via an absfs.FileSystem,
// descending into subdirectories when recursive is true. Kept independent
// of the real OS so it can be exercised against memfs in tests.
//
// Grounded on the teacher's encryptfs.go path-translation helpers, which
// likewise operate purely in terms of the absfs.FileSystem/absfs.File
// interfaces rather than package os.
func walkFS(fsys absfs.FileSystem, root string, recursive bool) ([]string, error) {
	var out []string

	dir, err := fsys.Open(root)
	if err != nil {
		return nil, NewIOError("open", root, err)
	}
	entries, err := dir.Readdir(-1)
	closeErr := dir.Close()
	if err != nil {
		return nil, NewIOError("readdir", root, err)
	}
	if closeErr != nil {
		return nil, NewIOError("close", root, closeErr)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	sep := string(rune(fsys.Separator()))
	for _, entry := range entries {
		child := root
		if !strings.HasSuffix(child, sep) {
			child += sep
		}
		child += entry.Name()

		if entry.IsDir() {
			if !recursive {
				continue
			}
			sub, err := walkFS(fsys, child, recursive)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}
		out = append(out, child)
	}

	return out, nil
}

// Run applies mode to every eligible file under root on the real
// filesystem, in parallel across files (spec.md §5: "cross-file
// parallelism is permitted if each file operation owns its own
// keys/buffers/handles"). Each worker calls EncryptFile/DecryptFile with
// an independently derived key set, so no state is shared across workers.
//
// The worker-pool-with-panic-recovery shape is grounded on the teacher's
// parallel.go (runWorkerPool/chunkJob), repurposed from intra-file chunk
// parallelism — which spec.md §5 forbids — to inter-file parallelism,
// which it explicitly allows.
func Run(root string, password []byte, mode Mode, opts DriverOptions) ([]FileResult, error) {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runID := uuid.New()
	logger = logger.With("run_id", runID.String(), "mode", modeName(mode))

	paths, err := walkFS(&osFS{}, root, opts.Recursive)
	if err != nil {
		return nil, err
	}

	var eligible []string
	for _, p := range paths {
		if isHiddenPath(p) {
			continue
		}
		isContainer := strings.HasSuffix(p, containerExt)
		if mode == ModeEncrypt && !isContainer {
			eligible = append(eligible, p)
		} else if mode == ModeDecrypt && isContainer {
			eligible = append(eligible, p)
		}
	}
	logger.Info("directory scan complete", "files_found", len(paths), "files_eligible", len(eligible))

	jobs := make(chan string)
	results := make([]FileResult, len(eligible))

	var wg sync.WaitGroup
	var mu sync.Mutex
	indexOf := make(map[string]int, len(eligible))
	for i, p := range eligible {
		indexOf[p] = i
	}

	worker := func() {
		defer wg.Done()
		for path := range jobs {
			res := runOne(path, password, mode, opts.FileOptions, logger)
			mu.Lock()
			results[indexOf[path]] = res
			mu.Unlock()
		}
	}

	for w := 0; w < opts.Workers; w++ {
		wg.Add(1)
		go worker()
	}
	for _, p := range eligible {
		jobs <- p
	}
	close(jobs)
	wg.Wait()

	return results, nil
}

// runOne performs a single file's operation, recovering from any panic in
// the underlying pipeline so one bad file never aborts the whole run.
func runOne(path string, password []byte, mode Mode, fileOpts Options, logger *slog.Logger) (result FileResult) {
	result.SourcePath = path
	defer func() {
		if r := recover(); r != nil {
			result.Err = NewIOError("process", path, errOf(r))
			logger.Error("panic during file operation", "path", path, "panic", r)
		}
	}()

	var out string
	var err error
	switch mode {
	case ModeEncrypt:
		out, err = EncryptFile(path, password, fileOpts)
	case ModeDecrypt:
		out, err = DecryptFile(path, password)
	}
	result.OutputPath = out
	result.Err = err

	if err != nil {
		logger.Warn("file operation failed", "path", path, "error", err)
	} else {
		logger.Info("file operation succeeded", "path", path, "output", out)
	}
	return result
}

// isHiddenPath reports whether p's basename begins with "." (spec.md
// §6.3: "existing .crypt files and hidden paths are skipped").
func isHiddenPath(p string) bool {
	return strings.HasPrefix(filepath.Base(p), ".")
}

func errOf(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &ValidationError{Message: "recovered panic"}
}

func modeName(m Mode) string {
	if m == ModeEncrypt {
		return "encrypt"
	}
	return "decrypt"
}

// osFS adapts package os to absfs.FileSystem for production directory
// walks, mirroring the teacher's encryptfs_test.go osTestFS but rooted at
// the real filesystem root rather than a sandboxed temp directory.
type osFS struct {
	cwd string
}

func (fs *osFS) Open(name string) (absfs.File, error) { return os.Open(name) }
func (fs *osFS) Create(name string) (absfs.File, error) {
	return os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}
func (fs *osFS) OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error) {
	return os.OpenFile(name, flag, perm)
}
func (fs *osFS) Mkdir(name string, perm os.FileMode) error    { return os.Mkdir(name, perm) }
func (fs *osFS) MkdirAll(name string, perm os.FileMode) error { return os.MkdirAll(name, perm) }
func (fs *osFS) Remove(name string) error                     { return os.Remove(name) }
func (fs *osFS) RemoveAll(path string) error                  { return os.RemoveAll(path) }
func (fs *osFS) Rename(oldpath, newpath string) error         { return os.Rename(oldpath, newpath) }
func (fs *osFS) Stat(name string) (os.FileInfo, error)        { return os.Stat(name) }
func (fs *osFS) Chmod(name string, mode os.FileMode) error    { return os.Chmod(name, mode) }
func (fs *osFS) Chtimes(name string, atime, mtime time.Time) error {
	return os.Chtimes(name, atime, mtime)
}
func (fs *osFS) Chown(name string, uid, gid int) error { return os.Chown(name, uid, gid) }
func (fs *osFS) Truncate(name string, size int64) error { return os.Truncate(name, size) }
func (fs *osFS) Separator() uint8                       { return os.PathSeparator }
func (fs *osFS) ListSeparator() uint8                    { return os.PathListSeparator }
func (fs *osFS) Chdir(dir string) error                  { fs.cwd = dir; return nil }
func (fs *osFS) Getwd() (string, error) {
	if fs.cwd != "" {
		return fs.cwd, nil
	}
	return os.Getwd()
}
func (fs *osFS) TempDir() string { return os.TempDir() }
