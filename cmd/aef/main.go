// Command aef encrypts and decrypts files and directories using the AEF
// container format (spec.md §6.3).
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/vercingetorx/nimcrypt"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("aef", flag.ContinueOnError)

	var (
		encrypt   bool
		decrypt   bool
		recursive bool
		quiet     bool
		showVer   bool
		chunkSize uint
		memKiB    uint
		timeCost  uint
		parallel  uint
		cipher    string
		workers   int
		legacyKDF bool
	)

	fs.BoolVar(&encrypt, "encrypt", false, "encrypt the given paths")
	fs.BoolVar(&encrypt, "e", false, "encrypt the given paths (shorthand)")
	fs.BoolVar(&decrypt, "decrypt", false, "decrypt the given paths")
	fs.BoolVar(&decrypt, "d", false, "decrypt the given paths (shorthand)")
	fs.BoolVar(&recursive, "recursive", false, "descend into subdirectories")
	fs.BoolVar(&recursive, "r", false, "descend into subdirectories (shorthand)")
	fs.BoolVar(&quiet, "quiet", false, "suppress per-file progress output")
	fs.BoolVar(&quiet, "q", false, "suppress per-file progress output (shorthand)")
	fs.BoolVar(&showVer, "version", false, "print the version and exit")
	fs.BoolVar(&showVer, "v", false, "print the version and exit (shorthand)")
	fs.UintVar(&chunkSize, "chunk", uint(aef.DefaultOptions().ChunkSize/(1<<20)), "chunk size in MiB (clamped to >= 1)")
	fs.UintVar(&memKiB, "m", uint(aef.DefaultKDFParams().MemoryKiB), "argon2id memory cost in KiB")
	fs.UintVar(&timeCost, "t", uint(aef.DefaultKDFParams().Iterations), "argon2id time cost")
	fs.UintVar(&parallel, "p", uint(aef.DefaultKDFParams().Parallelism), "argon2id parallelism")
	fs.StringVar(&cipher, "cipher", "xchacha20", "cipher suite name")
	fs.StringVar(&cipher, "c", "xchacha20", "cipher suite name (shorthand)")
	fs.IntVar(&workers, "workers", 4, "number of files to process concurrently")
	fs.BoolVar(&legacyKDF, "legacy-kdf", false, "derive the master key with PBKDF2 instead of argon2id (for memory-constrained hosts)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if showVer {
		fmt.Println(aef.FormatVersion)
		return 0
	}

	logger := newLogger(quiet)

	paths := fs.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: aef [-e|-d] [-r] [-c cipher] [--chunk n] path [path ...]")
		return 2
	}

	suite, err := aef.ParseCipherName(cipher)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	chunkMiB := chunkSize
	if chunkMiB < 1 {
		chunkMiB = 1
	}
	opts := aef.Options{
		ChunkSize: uint32(chunkMiB) * (1 << 20),
		Suite:     suite,
		KDF: aef.KDFParams{
			MemoryKiB:   uint32(memKiB),
			Iterations:  uint32(timeCost),
			Parallelism: uint32(parallel),
		},
		LegacyKDF: legacyKDF,
	}

	mode, ok := resolveMode(encrypt, decrypt, paths)
	if !ok {
		fmt.Fprintln(os.Stderr, "error: pass -e/-d, or rely on the .crypt suffix to pick a single mode for all paths")
		return 2
	}

	password, err := readPassword()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	defer aef.Wipe(password)

	driverOpts := aef.DriverOptions{
		FileOptions: opts,
		Recursive:   recursive,
		Workers:     workers,
		Logger:      logger,
	}

	exitCode := 0
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			exitCode = 1
			continue
		}

		if info.IsDir() {
			results, err := aef.Run(p, password, mode, driverOpts)
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				exitCode = 1
				continue
			}
			for _, r := range results {
				if r.Err != nil {
					fmt.Fprintf(os.Stderr, "%s: %v\n", r.SourcePath, r.Err)
					exitCode = 1
				} else if !quiet {
					fmt.Printf("%s -> %s\n", r.SourcePath, r.OutputPath)
				}
			}
			continue
		}

		pathMode := mode
		if !encrypt && !decrypt {
			pathMode = modeForPath(p)
		}

		var out string
		switch pathMode {
		case aef.ModeEncrypt:
			out, err = aef.EncryptFile(p, password, opts)
		case aef.ModeDecrypt:
			out, err = aef.DecryptFile(p, password)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", p, err)
			exitCode = 1
			continue
		}
		if !quiet {
			fmt.Printf("%s -> %s\n", p, out)
		}
	}

	return exitCode
}

// resolveMode decides encrypt vs decrypt. An explicit -e/-d always wins;
// otherwise every path must agree on the .crypt suffix (spec.md §6.3).
func resolveMode(encrypt, decrypt bool, paths []string) (aef.Mode, bool) {
	if encrypt && !decrypt {
		return aef.ModeEncrypt, true
	}
	if decrypt && !encrypt {
		return aef.ModeDecrypt, true
	}
	if encrypt && decrypt {
		return 0, false
	}

	first := modeForPath(paths[0])
	for _, p := range paths[1:] {
		if modeForPath(p) != first {
			return 0, false
		}
	}
	return first, true
}

func modeForPath(path string) aef.Mode {
	if strings.HasSuffix(path, ".crypt") {
		return aef.ModeDecrypt
	}
	return aef.ModeEncrypt
}

// readPassword prompts twice and requires both entries to match, using
// golang.org/x/term so the password is never echoed to the terminal.
func readPassword() ([]byte, error) {
	fmt.Fprint(os.Stderr, "password: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}

	fmt.Fprint(os.Stderr, "confirm password: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading password confirmation: %w", err)
	}
	if !bytes.Equal(first, second) {
		return nil, fmt.Errorf("passwords do not match")
	}
	return first, nil
}

func newLogger(quiet bool) *slog.Logger {
	level := slog.LevelInfo
	if quiet {
		level = slog.LevelWarn
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
